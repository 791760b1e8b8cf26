package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/kurihiro0119/github-repo-finder/internal/domain"
)

const timeLayout = "2006-01-02 15:04"

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRepositories(w io.Writer, repos []*domain.Repository, asJSON bool) error {
	if asJSON {
		if repos == nil {
			repos = []*domain.Repository{}
		}
		return writeJSON(w, repos)
	}

	if len(repos) == 0 {
		fmt.Fprintln(w, "No repositories found")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Name", "Owner", "Language", "Stars", "Forks", "Saved"})
	for _, r := range repos {
		if r == nil {
			continue
		}
		table.Append([]string{
			strconv.FormatInt(r.ID, 10),
			str(r.Name),
			str(r.OwnerLogin),
			str(r.Language),
			num(r.StargazersCount),
			num(r.ForksCount),
			mark(r.IsSaved),
		})
	}
	table.Render()
	return nil
}

func printSavedList(w io.Writer, list []*domain.SavedRepository, asJSON bool) error {
	if asJSON {
		if list == nil {
			list = []*domain.SavedRepository{}
		}
		return writeJSON(w, list)
	}

	if len(list) == 0 {
		fmt.Fprintln(w, "No saved repositories")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Name", "Owner", "Language", "Stars", "Saved At"})
	for _, s := range list {
		table.Append([]string{
			strconv.FormatInt(s.ID, 10),
			str(s.Name),
			str(s.OwnerLogin),
			str(s.Language),
			num(s.StargazersCount),
			s.SavedAt.Local().Format(timeLayout),
		})
	}
	table.Render()
	return nil
}

func printRepository(w io.Writer, repo *domain.Repository, asJSON bool) error {
	if asJSON {
		return writeJSON(w, repo)
	}

	if repo == nil {
		fmt.Fprintln(w, "No repository selected")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Value"})
	table.Append([]string{"ID", strconv.FormatInt(repo.ID, 10)})
	table.Append([]string{"Name", str(repo.Name)})
	table.Append([]string{"Owner", str(repo.OwnerLogin)})
	table.Append([]string{"URL", str(repo.HTMLURL)})
	table.Append([]string{"Language", str(repo.Language)})
	table.Append([]string{"Stars", num(repo.StargazersCount)})
	table.Append([]string{"Watchers", num(repo.WatchersCount)})
	table.Append([]string{"Forks", num(repo.ForksCount)})
	table.Append([]string{"Open Issues", num(repo.OpenIssuesCount)})
	table.Append([]string{"Saved", mark(repo.IsSaved)})
	table.Render()
	return nil
}

func str(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func num(n *int64) string {
	if n == nil {
		return "-"
	}
	return strconv.FormatInt(*n, 10)
}

func mark(saved bool) string {
	if saved {
		return "*"
	}
	return ""
}
