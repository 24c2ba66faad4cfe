package publish

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

const (
	authorName  = "pricetracker"
	authorEmail = "pricetracker@everstack.dev"
)

// GitOps handles git operations for the repository holding the data dir.
type GitOps struct {
	repo     *git.Repository
	worktree *git.Worktree
	token    string
	now      func() time.Time
}

// OpenRepo opens a git repository at the given path.
func OpenRepo(path, token string) (*GitOps, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repo %s: %w", path, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}

	return &GitOps{repo: repo, worktree: wt, token: token, now: time.Now}, nil
}

// Clean reports whether the worktree has nothing to commit.
func (g *GitOps) Clean() (bool, error) {
	st, err := g.worktree.Status()
	if err != nil {
		return false, fmt.Errorf("reading status: %w", err)
	}
	return st.IsClean(), nil
}

// CreateBranch creates and checks out a new branch at HEAD, keeping
// uncommitted changes in the worktree.
func (g *GitOps) CreateBranch(name string) error {
	headRef, err := g.repo.Head()
	if err != nil {
		return fmt.Errorf("getting HEAD: %w", err)
	}

	branchRef := plumbing.NewBranchReferenceName(name)
	ref := plumbing.NewHashReference(branchRef, headRef.Hash())

	if err := g.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("creating branch ref: %w", err)
	}

	return g.worktree.Checkout(&git.CheckoutOptions{
		Branch: branchRef,
		Keep:   true,
	})
}

// Branch returns the short name of the checked-out branch.
func (g *GitOps) Branch() (string, error) {
	head, err := g.repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD: %w", err)
	}
	return head.Name().Short(), nil
}

// AddAll stages all changes.
func (g *GitOps) AddAll() error {
	return g.worktree.AddWithOptions(&git.AddOptions{All: true})
}

// Commit creates a commit with the given message and returns its hash.
func (g *GitOps) Commit(message string) (string, error) {
	hash, err := g.worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  g.now(),
		},
	})
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

// Push pushes the named branch to origin.
func (g *GitOps) Push(branch string) error {
	spec := fmt.Sprintf("+refs/heads/%s:refs/heads/%s", branch, branch)
	return g.repo.Push(&git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(spec)},
		Auth: &githttp.BasicAuth{
			Username: "x-access-token",
			Password: g.token,
		},
	})
}

// BranchName is the update branch for a run at now.
func BranchName(now time.Time) string {
	return "pricetracker/prices-" + now.UTC().Format("20060102-150405")
}

// CommitMessage is the commit and PR title for a run at now.
func CommitMessage(now time.Time) string {
	return "chore(prices): update catalog " + now.UTC().Format("2006-01-02")
}
