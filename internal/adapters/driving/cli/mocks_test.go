package cli

import (
	"bytes"
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

// mockQueryService records calls and returns canned results.
type mockQueryService struct {
	answer    *domain.Answer
	queryErr  error
	analytics *domain.CourseAnalytics
	course    *domain.Course
	courseErr error
	clearErr  error

	queries  []string
	sessions []string
}

func (m *mockQueryService) Query(_ context.Context, query, sessionID string) (*domain.Answer, error) {
	m.queries = append(m.queries, query)
	m.sessions = append(m.sessions, sessionID)
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if m.answer != nil {
		a := *m.answer
		return &a, nil
	}
	if sessionID == "" {
		sessionID = "session-1"
	}
	return &domain.Answer{Answer: "answer to " + query, Sources: []domain.Source{}, SessionID: sessionID}, nil
}

func (m *mockQueryService) CourseAnalytics(_ context.Context) (*domain.CourseAnalytics, error) {
	if m.analytics != nil {
		return m.analytics, nil
	}
	return &domain.CourseAnalytics{}, nil
}

func (m *mockQueryService) CourseOutline(_ context.Context, _ string) (*domain.Course, error) {
	if m.courseErr != nil {
		return nil, m.courseErr
	}
	if m.course == nil {
		return nil, domain.ErrNotFound
	}
	return m.course, nil
}

func (m *mockQueryService) ClearSession(_ context.Context, _ string) error {
	return m.clearErr
}

type mockSearchService struct {
	results domain.SearchResults
	opts    []domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, _ string, opts domain.SearchOptions) domain.SearchResults {
	m.opts = append(m.opts, opts)
	return m.results
}

type mockIngestService struct {
	report   *domain.IngestReport
	err      error
	files    []string
	dirs     []string
	cleared  bool
	clearArg bool
}

func (m *mockIngestService) IngestFile(_ context.Context, path string) (*domain.IngestReport, error) {
	m.files = append(m.files, path)
	if m.err != nil {
		return nil, m.err
	}
	return m.reportOrEmpty(), nil
}

func (m *mockIngestService) IngestDirectory(_ context.Context, dir string, clear bool) (*domain.IngestReport, error) {
	m.dirs = append(m.dirs, dir)
	m.clearArg = clear
	if m.err != nil {
		return nil, m.err
	}
	return m.reportOrEmpty(), nil
}

func (m *mockIngestService) ClearAll(_ context.Context) error {
	m.cleared = true
	return nil
}

func (m *mockIngestService) reportOrEmpty() *domain.IngestReport {
	if m.report != nil {
		return m.report
	}
	return &domain.IngestReport{}
}

type mockSettingsService struct {
	settings    domain.AppSettings
	setErr      error
	validateErr error
	set         map[string]string

	embeddingProvider domain.AIProvider
	llmProvider       domain.AIProvider
	llmModel          string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), set: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"llm.model", "rag.max_results"}
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, _, _ string) error {
	m.embeddingProvider = provider
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, _ string) error {
	m.llmProvider = provider
	m.llmModel = model
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return nil }

func (m *mockSettingsService) ValidateLLMConfig() error { return nil }

// setupTestServices installs a factory returning svc and restores the
// previous state on cleanup.
func setupTestServices(svc *Services) func() {
	SetFactory(func(Options) (*Services, error) { return svc, nil })
	return func() {
		SetFactory(nil)
		resetFlags(rootCmd)
	}
}

// resetFlags restores every flag to its default so tests do not leak
// values into each other through the shared command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue) //nolint:errcheck // defaults always parse
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns combined output.
func execute(args []string, stdin string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
