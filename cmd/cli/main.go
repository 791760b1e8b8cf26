package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kurihiro0119/github-repo-finder/internal/app"
	"github.com/kurihiro0119/github-repo-finder/internal/config"
	"github.com/kurihiro0119/github-repo-finder/internal/domain"
	apperrors "github.com/kurihiro0119/github-repo-finder/internal/errors"
	"github.com/kurihiro0119/github-repo-finder/internal/reconcile"
)

var (
	cfgFile     string
	outputJSON  bool
	apiEndpoint string
	selectID    int64
	saveID      int64
	unsaveID    int64
	toggleSaved bool
)

var rootCmd = &cobra.Command{
	Use:   "repo-finder",
	Short: "GitHub repository finder",
	Long: `A CLI tool for searching GitHub repositories and keeping a saved list.

Search results are marked with their saved state. Repositories can be saved,
removed, and selected for preview. By default everything is stored locally;
with --api the commands run against a repo-finder API server.`,
	SilenceUsage: true,
}

var searchCmd = &cobra.Command{
	Use:   "search [keyword]",
	Short: "Search repositories",
	Long:  `Search GitHub repositories by keyword. Saved repositories are marked in the results.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "Show the saved list",
	Long:  `Display the saved repositories, oldest first.`,
	Args:  cobra.NoArgs,
	RunE:  runSaved,
}

var savedRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a repository from the saved list",
	Long:  `Remove a repository from the saved list. Removing an id that is not saved succeeds.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSavedRemove,
}

var savedSelectCmd = &cobra.Command{
	Use:   "select [id]",
	Short: "Preview a saved repository",
	Long:  `Store a saved repository as the previewed repository.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSavedSelect,
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show the previewed repository",
	Long:  `Display the previewed repository with its saved state.`,
	Args:  cobra.NoArgs,
	RunE:  runPreview,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&apiEndpoint, "api", "", "API server URL (default is local mode)")

	searchCmd.Flags().Int64Var(&selectID, "select", 0, "preview the result with this id")
	searchCmd.Flags().Int64Var(&saveID, "save", 0, "save the result with this id")
	searchCmd.Flags().Int64Var(&unsaveID, "unsave", 0, "remove the result with this id from the saved list")
	previewCmd.Flags().BoolVar(&toggleSaved, "toggle", false, "save or unsave the previewed repository")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(savedCmd)
	savedCmd.AddCommand(savedRemoveCmd)
	savedCmd.AddCommand(savedSelectCmd)
	rootCmd.AddCommand(previewCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openBackend returns the backend selected by --api and a cleanup func
func openBackend() (backend, func(), error) {
	if cfgFile != "" {
		if err := godotenv.Load(cfgFile); err != nil {
			return nil, nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if apiEndpoint != "" {
		b := newRemoteBackend(apiEndpoint)
		return b, func() { _ = b.Close() }, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, closeLog := app.NewLogger(cfg)

	st, err := app.OpenStorage(cfg)
	if err != nil {
		_ = closeLog()
		return nil, nil, err
	}

	searcher, err := app.NewSearcher(cfg, logger)
	if err != nil {
		_ = st.Close()
		_ = closeLog()
		return nil, nil, fmt.Errorf("failed to create searcher: %w", err)
	}

	b := newLocalBackend(st, searcher, apperrors.MatchLanguage(cfg.Language), logger)
	return b, func() {
		_ = b.Close()
		_ = closeLog()
	}, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	b, cleanup, err := openBackend()
	if err != nil {
		return err
	}
	defer cleanup()

	return searchAndApply(cmd.Context(), b, cmd.OutOrStdout(), args[0], searchActions{
		selectID: selectID,
		saveID:   saveID,
		unsaveID: unsaveID,
	})
}

type searchActions struct {
	selectID int64
	saveID   int64
	unsaveID int64
}

// searchAndApply runs the query, applies the requested actions to its
// results and prints them
func searchAndApply(ctx context.Context, b backend, w io.Writer, keyword string, acts searchActions) error {
	repos, err := b.Search(ctx, keyword)
	if err != nil {
		return err
	}

	if acts.saveID != 0 {
		repo, err := findResult(repos, acts.saveID)
		if err != nil {
			return err
		}
		if err := b.Save(ctx, repo); err != nil {
			return fmt.Errorf("failed to save repository %d: %w", acts.saveID, err)
		}
		repos = reconcile.SetSaved(repos, acts.saveID, true)
	}

	if acts.unsaveID != 0 {
		if err := b.Unsave(ctx, acts.unsaveID); err != nil {
			return fmt.Errorf("failed to remove repository %d: %w", acts.unsaveID, err)
		}
		repos = reconcile.SetSaved(repos, acts.unsaveID, false)
	}

	if acts.selectID != 0 {
		repo, err := findResult(repos, acts.selectID)
		if err != nil {
			return err
		}
		if err := b.SetPreviewed(ctx, repo); err != nil {
			return fmt.Errorf("failed to select repository %d: %w", acts.selectID, err)
		}
	}

	return printRepositories(w, repos, outputJSON)
}

func findResult(repos []*domain.Repository, id int64) (*domain.Repository, error) {
	for _, r := range repos {
		if r != nil && r.ID == id {
			return r, nil
		}
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("repository %d in search results", id))
}

func runSaved(cmd *cobra.Command, args []string) error {
	b, cleanup, err := openBackend()
	if err != nil {
		return err
	}
	defer cleanup()

	list, err := b.SavedList(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get saved list: %w", err)
	}
	return printSavedList(cmd.OutOrStdout(), list, outputJSON)
}

func runSavedRemove(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	b, cleanup, err := openBackend()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	if err := b.Unsave(ctx, id); err != nil {
		return fmt.Errorf("failed to remove repository %d: %w", id, err)
	}

	list, err := b.SavedList(ctx)
	if err != nil {
		return fmt.Errorf("failed to get saved list: %w", err)
	}
	return printSavedList(cmd.OutOrStdout(), list, outputJSON)
}

func runSavedSelect(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	b, cleanup, err := openBackend()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	list, err := b.SavedList(ctx)
	if err != nil {
		return fmt.Errorf("failed to get saved list: %w", err)
	}
	for _, s := range list {
		if s.ID == id {
			if err := b.SetPreviewed(ctx, s.ToRepository()); err != nil {
				return fmt.Errorf("failed to select repository %d: %w", id, err)
			}
			return printRepository(cmd.OutOrStdout(), s.ToRepository(), outputJSON)
		}
	}
	return apperrors.NewNotFoundError(fmt.Sprintf("repository %d in saved list", id))
}

func runPreview(cmd *cobra.Command, args []string) error {
	b, cleanup, err := openBackend()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	var repo *domain.Repository
	if toggleSaved {
		repo, err = b.TogglePreviewed(ctx)
	} else {
		repo, err = b.Previewed(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to get previewed repository: %w", err)
	}
	return printRepository(cmd.OutOrStdout(), repo, outputJSON)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewInvalidRequestError(fmt.Sprintf("invalid repository id %q", s))
	}
	return id, nil
}
