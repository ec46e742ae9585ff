package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/upi-finance-tracker/internal/config"
	"github.com/dvloznov/upi-finance-tracker/internal/domain"
	"github.com/dvloznov/upi-finance-tracker/internal/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("UPIFT_AI_API_KEY", "")
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestNew_RulesOnly(t *testing.T) {
	ctx := logger.WithContext(context.Background(), zerolog.Nop())
	cfg := testConfig(t)

	svc, err := New(ctx, cfg)

	require.NoError(t, err)
	assert.False(t, svc.Categorizer.AIEnabled())
	assert.Equal(t, "Others", svc.Taxonomy.Default().Name)
	assert.NotNil(t, svc.Storage)
	assert.NotNil(t, svc.Processor)
}

func TestNew_ProcessesLocalFile(t *testing.T) {
	ctx := logger.WithContext(context.Background(), zerolog.Nop())
	svc, err := New(ctx, testConfig(t))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "phonepe_march.csv")
	csv := "Date,Transaction Details,Type,Amount,Status\n" +
		"01/03/2024,Paid to Swiggy,Debit,320,SUCCESS\n" +
		"02/03/2024,Paid to Uber,Debit,210,FAILED\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	res, err := svc.Processor.ProcessLocation(ctx, path)

	require.NoError(t, err)
	assert.Equal(t, "phonepe_march.csv", res.FileName)
	assert.Equal(t, domain.SourcePhonePe, res.Source)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "Food & Dining", res.Transactions[0].Category)
}
