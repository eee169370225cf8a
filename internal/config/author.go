package config

import (
	"github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
)

// DeriveAuthor fills the config's author identity. An explicit config
// override wins; missing fields fall back to the git configuration of the
// repository enclosing srcRoot. Derivation happens once per resolution; a
// missing identity is not an error here — the build driver validates it only
// when publishing.
func DeriveAuthor(cfg *Config, srcRoot string) {
	if cfg.Author != nil && cfg.Author.Name != "" && cfg.Author.Email != "" {
		return
	}
	if cfg.Author == nil {
		cfg.Author = &Author{}
	}

	repo, err := git.PlainOpenWithOptions(srcRoot, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return
	}
	gc, err := repo.ConfigScoped(gitcfg.GlobalScope)
	if err != nil {
		return
	}

	if cfg.Author.Name == "" {
		cfg.Author.Name = gc.User.Name
	}
	if cfg.Author.Email == "" {
		cfg.Author.Email = gc.User.Email
	}
}
