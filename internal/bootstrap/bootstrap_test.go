package bootstrap

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/codeassess-api/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		AppName:          "codeassess-test",
		DatabaseURL:      "sqlite://file:" + t.Name() + "?mode=memory&cache=shared",
		EventsChannel:    "assessment.completed",
		AIProvider:       "none",
		JudgeFingerprint: "sha256",
		ReaperSchedule:   "@every 5m",
		ScoringRateLimit: 30,
		CORSAllowOrigins: "*",
	}
}

func TestBuildWithoutOptionalBackends(t *testing.T) {
	container, err := Build(context.Background(), testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	require.NotNil(t, container.DB)
	require.Nil(t, container.Redis)
	require.Nil(t, container.NATS)
	require.NotNil(t, container.Engine)
	require.NotNil(t, container.Sessions)
	require.NotNil(t, container.Submissions)
	require.NotNil(t, container.Results)
	require.NotNil(t, container.Reaper)

	report, err := container.Reaper.RunOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, report.Scanned)
}

func TestBuildKeepsRunningWhenRedisIsDown(t *testing.T) {
	mini := miniredis.RunT(t)
	addr := mini.Addr()
	mini.Close()

	cfg := testConfig(t)
	cfg.RedisURL = "redis://" + addr

	container, err := Build(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	require.Nil(t, container.Redis)
}

func TestBuildWiresRedisBackedJudge(t *testing.T) {
	mini := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.RedisURL = "redis://" + mini.Addr()
	cfg.AIProvider = "openai"
	cfg.OpenAIAPIKey = "sk-test"

	container, err := Build(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	require.NotNil(t, container.Redis)
	judge, err := container.buildJudge(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, judge)
}

func TestBuildRejectsMissingDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseURL = ""

	_, err := Build(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
}
