// Package publish pushes a built site directory to a hosting branch.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/sitepress/internal/logfields"
)

// DefaultBranch is the hosting branch pushed to when none is configured.
const DefaultBranch = "gh-pages"

// TokenEnvVars name the environment variables consulted for the push
// credential, in order.
var TokenEnvVars = []string{"SITEPRESS_TOKEN", "GITHUB_TOKEN"}

// Options configure one publish push.
type Options struct {
	Message string
	RepoURL string
	Branch  string
	Name    string
	Email   string
	Token   string
}

// Token reads the push credential from the process environment.
func Token() string {
	for _, name := range TokenEnvVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// WriteCNAME writes the custom-domain CNAME file into the publish directory.
func WriteCNAME(dir, domain string) error {
	path := filepath.Join(dir, "CNAME")
	if err := os.WriteFile(path, []byte(domain+"\n"), 0o644); err != nil {
		return fmt.Errorf("write CNAME: %w", err)
	}
	slog.Debug("Wrote CNAME", logfields.Path(path))
	return nil
}

// Publish commits the contents of dir into a throwaway repository and
// force-pushes the result to the hosting branch of opts.RepoURL.
func Publish(ctx context.Context, dir string, opts Options) error {
	if opts.Branch == "" {
		opts.Branch = DefaultBranch
	}
	if opts.Message == "" {
		opts.Message = "Update site " + time.Now().Format(time.RFC3339)
	}

	repo, err := git.PlainInit(dir, false)
	if errors.Is(err, git.ErrRepositoryAlreadyExists) {
		repo, err = git.PlainOpen(dir)
	}
	if err != nil {
		return fmt.Errorf("init publish repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("publish worktree: %w", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("stage site files: %w", err)
	}

	sig := &object.Signature{Name: opts.Name, Email: opts.Email, When: time.Now()}
	_, err = wt.Commit(opts.Message, &git.CommitOptions{
		Author:            sig,
		AllowEmptyCommits: true,
	})
	if err != nil {
		return fmt.Errorf("commit site: %w", err)
	}

	if _, err := repo.CreateRemote(&gitcfg.RemoteConfig{
		Name: "origin",
		URLs: []string{opts.RepoURL},
	}); err != nil && !errors.Is(err, git.ErrRemoteExists) {
		return fmt.Errorf("configure remote: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("publish head: %w", err)
	}

	pushOpts := &git.PushOptions{
		RemoteName: "origin",
		RefSpecs: []gitcfg.RefSpec{
			gitcfg.RefSpec(fmt.Sprintf("+%s:refs/heads/%s", head.Name(), opts.Branch)),
		},
		Force: true,
	}
	if opts.Token != "" {
		pushOpts.Auth = &http.BasicAuth{Username: "token", Password: opts.Token}
	}

	if err := repo.PushContext(ctx, pushOpts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("push %s to %s: %w", opts.Branch, opts.RepoURL, err)
	}

	slog.Info("Site published", logfields.URL(opts.RepoURL), slog.String("branch", opts.Branch))
	return nil
}
