package commands

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itd/internal/config"
	"itd/internal/domain"
	"itd/internal/execution"
	"itd/internal/storage"
	"itd/internal/ui"
)

// fakeDispatcher lists a fixed set of keys; failures[key] is how many times
// the test fails before it starts passing (-1 fails forever).
type fakeDispatcher struct {
	mu       sync.Mutex
	listing  string
	count    int
	failures map[string]int
	ran      []string
}

func (f *fakeDispatcher) List(ctx context.Context) (string, int, error) {
	return f.listing, f.count, nil
}

func (f *fakeDispatcher) Run(ctx context.Context, test domain.ListedTest, workerID int) domain.TestResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ran = append(f.ran, test.Key)

	remaining := f.failures[test.Key]
	if remaining == 0 {
		return domain.TestResult{Test: test, WorkerID: workerID, Success: true}
	}
	if remaining > 0 {
		f.failures[test.Key] = remaining - 1
	}
	return domain.TestResult{
		Test:     test,
		WorkerID: workerID,
		ExitCode: 1,
		Output:   test.Key + " failed\n",
	}
}

func (f *fakeDispatcher) ranKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ran...)
}

type fakeProvisioner struct {
	calls   int
	workers int
	fresh   bool
}

func (p *fakeProvisioner) CheckAndCreateDatabases(ctx context.Context, workerCount int, fresh bool) ([]string, error) {
	p.calls++
	p.workers = workerCount
	p.fresh = fresh
	return nil, nil
}

type nopProgress struct{}

func (nopProgress) Update(completed, passed, failed int) {}
func (nopProgress) Finish()                              {}

type testEnv struct {
	cfg         *config.Config
	dispatcher  *fakeDispatcher
	provisioner *fakeProvisioner
	out         *bytes.Buffer
	cmds        *Commands
}

func newTestEnv(t *testing.T, failures map[string]int) *testEnv {
	t.Helper()
	color.NoColor = true

	cfg := config.New()
	cfg.ProjectPath = t.TempDir()
	cfg.Processors = 2

	h := &testEnv{
		cfg: cfg,
		dispatcher: &fakeDispatcher{
			listing:  "pkg.Alpha_pass\nadds numbers - pkg.Alpha_sum\npkg.Beta_fail\n",
			count:    3,
			failures: failures,
		},
		provisioner: &fakeProvisioner{},
		out:         &bytes.Buffer{},
	}
	h.cmds = newCommands(cfg, h.dispatcher, h.provisioner, ui.NewFormatterTo(cfg, h.out), zerolog.Nop())
	h.cmds.Run.newProgress = func(int) execution.Progress { return nopProgress{} }
	return h
}

func (h *testEnv) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	return cmd
}

func TestRunCommand_SavesFailures(t *testing.T) {
	h := newTestEnv(t, map[string]int{"pkg.Beta_fail": -1})

	err := h.cmds.Run.Execute(h.command(), nil)
	require.ErrorIs(t, err, ErrTestsFailed)

	output, err := storage.NewJSONStorage(h.cfg).Load()
	require.NoError(t, err)
	assert.Equal(t, 3, output.Meta.TotalTests)
	assert.Equal(t, 2, output.Meta.PassedTests)
	assert.Equal(t, 1, output.Meta.FailedTests)
	require.Len(t, output.Details, 1)
	assert.Equal(t, "pkg.Beta_fail", output.Details[0].Key)
	assert.Equal(t, 2, output.Details[0].Index)
	assert.Equal(t, []string{"pkg.Beta_fail failed"}, output.Details[0].Messages)

	assert.Contains(t, h.out.String(), "1 test(s) failed")
}

func TestRunCommand_StoresEffectiveWorkerCount(t *testing.T) {
	h := newTestEnv(t, nil)
	h.cfg.Processors = 8

	require.NoError(t, h.cmds.Run.Execute(h.command(), nil))

	output, err := storage.NewJSONStorage(h.cfg).Load()
	require.NoError(t, err)
	assert.Equal(t, 3, output.Meta.Workers)
}

func TestRunCommand_AllPass(t *testing.T) {
	h := newTestEnv(t, map[string]int{})

	require.NoError(t, h.cmds.Run.Execute(h.command(), nil))
	assert.Len(t, h.dispatcher.ranKeys(), 3)
	assert.Contains(t, h.out.String(), "All tests passed")
}

func TestRunCommand_RerunFailuresKeepsRerunOutcome(t *testing.T) {
	h := newTestEnv(t, map[string]int{"pkg.Beta_fail": 1})
	h.cfg.ApplyFlags(config.Flags{RerunFailures: true})

	require.NoError(t, h.cmds.Run.Execute(h.command(), nil))

	output, err := storage.NewJSONStorage(h.cfg).Load()
	require.NoError(t, err)
	assert.Equal(t, 0, output.Meta.FailedTests)
	assert.Equal(t, 3, output.Meta.TotalTests)
	assert.Empty(t, output.Details)
	assert.Len(t, h.dispatcher.ranKeys(), 4)
}

func TestRunCommand_OnlyFailed(t *testing.T) {
	h := newTestEnv(t, map[string]int{"pkg.Beta_fail": -1})
	require.ErrorIs(t, h.cmds.Run.Execute(h.command(), nil), ErrTestsFailed)

	h.dispatcher.ran = nil
	h.cfg.ApplyFlags(config.Flags{OnlyFailed: true})
	require.ErrorIs(t, h.cmds.Run.Execute(h.command(), nil), ErrTestsFailed)

	assert.Equal(t, []string{"pkg.Beta_fail"}, h.dispatcher.ranKeys())
}

func TestRunCommand_OnlyFailedWithoutResults(t *testing.T) {
	h := newTestEnv(t, nil)
	h.cfg.ApplyFlags(config.Flags{OnlyFailed: true})

	err := h.cmds.Run.Execute(h.command(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load last results")
}

func TestRunCommand_FilterMatchesNothing(t *testing.T) {
	h := newTestEnv(t, nil)
	h.cfg.ApplyFlags(config.Flags{Filter: "*Gamma*"})

	require.NoError(t, h.cmds.Run.Execute(h.command(), nil))
	assert.Empty(t, h.dispatcher.ranKeys())
}

func TestRunCommand_ProvisionDB(t *testing.T) {
	h := newTestEnv(t, nil)
	h.cfg.ApplyFlags(config.Flags{ProvisionDB: true, Processors: 3})

	require.NoError(t, h.cmds.Run.Execute(h.command(), nil))
	assert.Equal(t, 1, h.provisioner.calls)
	assert.Equal(t, 3, h.provisioner.workers)
	assert.True(t, h.provisioner.fresh)
}

func TestProvisionCommand_NoFresh(t *testing.T) {
	h := newTestEnv(t, nil)
	h.cfg.ApplyFlags(config.Flags{NoFresh: true})

	require.NoError(t, h.cmds.Provision.Execute(h.command(), nil))
	assert.Equal(t, 2, h.provisioner.workers)
	assert.False(t, h.provisioner.fresh)
}

func TestListCommand_MarksLastFailures(t *testing.T) {
	h := newTestEnv(t, map[string]int{"pkg.Beta_fail": -1})
	require.ErrorIs(t, h.cmds.Run.Execute(h.command(), nil), ErrTestsFailed)

	h.out.Reset()
	h.cfg.ApplyFlags(config.Flags{ShowDescriptions: true})
	require.NoError(t, h.cmds.List.Execute(h.command(), nil))

	out := h.out.String()
	assert.Contains(t, out, "Found 3 test(s) in 2 class(es)")
	assert.Contains(t, out, "[1] sum (adds numbers)")
	assert.Contains(t, out, "[2] fail [F]")
	assert.NotContains(t, out, "pass [F]")
}

func TestDispatchRerunner_FollowsMovedKey(t *testing.T) {
	h := newTestEnv(t, map[string]int{"pkg.Beta_fail": -1})
	rerunner := &dispatchRerunner{source: h.cmds.Run.source}

	failure, err := rerunner.Rerun(context.Background(), domain.TestFailure{Index: 7, Key: "pkg.Beta_fail"})
	require.NoError(t, err)
	require.NotNil(t, failure)
	assert.Equal(t, 2, failure.Index)

	failure, err = rerunner.Rerun(context.Background(), domain.TestFailure{Key: "pkg.Alpha_pass"})
	require.NoError(t, err)
	assert.Nil(t, failure)

	_, err = rerunner.Rerun(context.Background(), domain.TestFailure{Key: "pkg.Gone_test"})
	assert.Error(t, err)
}
