package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/restful-oms/internal/storage/postgres"
)

type fakeMigrator struct {
	upSteps   []int
	downSteps []int
	state     postgres.MigrationState
	upErr     error
	closed    bool
}

func (f *fakeMigrator) MigrateUp(_ context.Context, steps int) error {
	f.upSteps = append(f.upSteps, steps)
	return f.upErr
}

func (f *fakeMigrator) MigrateDown(_ context.Context, steps int) error {
	f.downSteps = append(f.downSteps, steps)
	return nil
}

func (f *fakeMigrator) MigrationStatus(context.Context) (postgres.MigrationState, error) {
	return f.state, nil
}

func (f *fakeMigrator) Close() error {
	f.closed = true
	return nil
}

func withFakeStore(t *testing.T, fake *fakeMigrator) {
	t.Helper()
	orig := openStore
	openStore = func(context.Context, string) (migrator, error) { return fake, nil }
	t.Cleanup(func() { openStore = orig })
}

func TestParseOptions(t *testing.T) {
	t.Setenv("OMS_POSTGRES_DSN", "postgres://env")

	opts, err := parseOptions([]string{"-direction", " DOWN ", "-steps", "2"})
	require.NoError(t, err)
	assert.Equal(t, "down", opts.direction)
	assert.Equal(t, 2, opts.steps)
	assert.Equal(t, "postgres://env", opts.dsn)

	opts, err = parseOptions([]string{"-dsn", "postgres://flag"})
	require.NoError(t, err)
	assert.Equal(t, "up", opts.direction)
	assert.Equal(t, "postgres://flag", opts.dsn)
}

func TestParseOptions_Errors(t *testing.T) {
	t.Setenv("OMS_POSTGRES_DSN", "")

	cases := map[string][]string{
		"missing dsn":    {},
		"bad direction":  {"-dsn", "x", "-direction", "sideways"},
		"negative steps": {"-dsn", "x", "-steps", "-1"},
		"unknown flag":   {"-nope"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseOptions(args)
			assert.Error(t, err)
		})
	}
}

func TestRun_Up(t *testing.T) {
	fake := &fakeMigrator{state: postgres.MigrationState{Version: 3, Applied: 3, Available: 3}}
	withFakeStore(t, fake)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), options{direction: "up", dsn: "x"}, &out))

	assert.Equal(t, []int{0}, fake.upSteps)
	assert.True(t, fake.closed)
	assert.Equal(t, "migrate up ok: version=3 applied=3 pending=0\n", out.String())
}

func TestRun_DownDefaultsToOneStep(t *testing.T) {
	fake := &fakeMigrator{state: postgres.MigrationState{Version: 2, Applied: 2, Available: 3}}
	withFakeStore(t, fake)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), options{direction: "down", dsn: "x"}, &out))

	assert.Equal(t, []int{1}, fake.downSteps)
	assert.Contains(t, out.String(), "pending=1")
}

func TestRun_Status(t *testing.T) {
	fake := &fakeMigrator{}
	withFakeStore(t, fake)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), options{direction: "status", dsn: "x"}, &out))
	assert.Empty(t, fake.upSteps)
	assert.Empty(t, fake.downSteps)
}

func TestRun_Errors(t *testing.T) {
	fake := &fakeMigrator{upErr: errors.New("boom")}
	withFakeStore(t, fake)

	err := run(context.Background(), options{direction: "up", dsn: "x"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate up failed")

	orig := openStore
	openStore = func(context.Context, string) (migrator, error) { return nil, errors.New("refused") }
	defer func() { openStore = orig }()
	err = run(context.Background(), options{direction: "up", dsn: "x"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "open postgres store")
}
