package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/coursemate/internal/core/domain"
	"github.com/custodia-labs/coursemate/internal/core/ports/driving"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers and retrieval tuning.

Use subcommands to change a single value or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Sets one setting by key. Run 'coursemate settings keys' for the list.

Examples:
  coursemate settings set rag.max_results 8
  coursemate settings set llm.provider openai`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	RunE:  runSettingsKeys,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the embedding and LLM providers.`,
	RunE:  runSettingsWizard,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used to index and search course content.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider that answers questions.`,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func settingsService() (driving.SettingsService, error) {
	svc, err := loadServices(NeedSettings)
	if err != nil {
		return nil, err
	}
	if svc.Settings == nil {
		return nil, errors.New("settings service not configured")
	}
	return svc.Settings, nil
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	settingsSvc, err := settingsService()
	if err != nil {
		return err
	}

	settings, err := settingsSvc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())
	cmd.Println()

	cmd.Println("[LLM]")
	printProvider(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())
	cmd.Printf("  Max tokens: %d\n", settings.LLM.MaxTokens)
	cmd.Printf("  Temperature: %g\n", settings.LLM.Temperature)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Chunk size: %d\n", settings.RAG.ChunkSize)
	cmd.Printf("  Chunk overlap: %d\n", settings.RAG.ChunkOverlap)
	cmd.Printf("  Max results: %d\n", settings.RAG.MaxResults)
	cmd.Printf("  Max history: %d\n", settings.RAG.MaxHistory)
	cmd.Printf("  Max tool rounds: %d\n", settings.RAG.MaxToolRounds)
	if settings.RAG.MaxResolveDistance > 0 {
		cmd.Printf("  Max resolve distance: %g\n", settings.RAG.MaxResolveDistance)
	} else {
		cmd.Println("  Max resolve distance: (off)")
	}
	cmd.Println()

	if err := settingsSvc.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'coursemate settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printProvider(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	cmd.Printf("  Provider: %s\n", provider.Description())
	cmd.Printf("  Model: %s\n", model)
	if provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set, or export %s)\n", provider.APIKeyEnv())
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	settingsSvc, err := settingsService()
	if err != nil {
		return err
	}
	if err := settingsSvc.Set(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("Set %s\n", args[0])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	settingsSvc, err := settingsService()
	if err != nil {
		return err
	}
	for _, key := range settingsSvc.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	settingsSvc, err := settingsService()
	if err != nil {
		return err
	}

	cmd.Println("Coursemate Settings Wizard")
	cmd.Println("==========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Configure Embedding Provider")
	cmd.Println("------------------------------------")
	if err := configureEmbeddingProvider(cmd, settingsSvc, reader); err != nil {
		return err
	}

	cmd.Println("Step 2: Configure LLM Provider")
	cmd.Println("------------------------------")
	if err := configureLLMProvider(cmd, settingsSvc, reader); err != nil {
		return err
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsSvc.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	settingsSvc, err := settingsService()
	if err != nil {
		return err
	}
	return configureEmbeddingProvider(cmd, settingsSvc, bufio.NewReader(cmd.InOrStdin()))
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	settingsSvc, err := settingsService()
	if err != nil {
		return err
	}
	return configureLLMProvider(cmd, settingsSvc, bufio.NewReader(cmd.InOrStdin()))
}

// providerChoice is the outcome of the provider prompts.
type providerChoice struct {
	provider domain.AIProvider
	model    string
	apiKey   string
}

func promptProvider(
	cmd *cobra.Command, reader *bufio.Reader, title string,
	providers []domain.AIProvider, defaults map[domain.AIProvider]string,
) providerChoice {
	cmd.Println(title)
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	choice := providerChoice{provider: providers[idx-1]}

	defaultModel := defaults[choice.provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	choice.model = readLine(reader)
	if choice.model == "" {
		choice.model = defaultModel
	}

	if choice.provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		choice.apiKey = readPassword(reader)
		cmd.Println()
	}
	return choice
}

func configureEmbeddingProvider(cmd *cobra.Command, settingsSvc driving.SettingsService, reader *bufio.Reader) error {
	choice := promptProvider(cmd, reader, "Select Embedding Provider",
		domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels())

	if err := settingsSvc.SetEmbeddingProvider(choice.provider, choice.model, choice.apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsSvc.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n\n", choice.provider.Description(), choice.model)
	return nil
}

func configureLLMProvider(cmd *cobra.Command, settingsSvc driving.SettingsService, reader *bufio.Reader) error {
	choice := promptProvider(cmd, reader, "Select LLM Provider",
		domain.AllLLMProviders(), domain.DefaultLLMModels())

	if err := settingsSvc.SetLLMProvider(choice.provider, choice.model, choice.apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsSvc.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", choice.provider.Description(), choice.model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo on a terminal and falls back to reader.
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
