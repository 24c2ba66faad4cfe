package publish

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"

	"github.com/everstacklabs/pricetracker/internal/changelog"
)

// GitHub opens catalog update pull requests.
type GitHub struct {
	client     *github.Client
	owner      string
	repo       string
	baseBranch string
}

// NewGitHub creates a client authenticated with token.
func NewGitHub(ctx context.Context, token, owner, repo, baseBranch string) *GitHub {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	return &GitHub{
		client:     github.NewClient(tc),
		owner:      owner,
		repo:       repo,
		baseBranch: baseBranch,
	}
}

// PullRequest identifies an opened PR.
type PullRequest struct {
	Number int
	URL    string
	Draft  bool
}

// OpenPR opens a PR from head with the changelog summary as its body. The PR
// is a draft when the changeset needs review.
func (g *GitHub) OpenPR(ctx context.Context, head, title string, cs *changelog.ChangeSet) (*PullRequest, error) {
	body := changelog.RenderSummary(cs)
	draft := cs.NeedsReview()

	pr, _, err := g.client.PullRequests.Create(ctx, g.owner, g.repo, &github.NewPullRequest{
		Title: &title,
		Body:  &body,
		Head:  &head,
		Base:  &g.baseBranch,
		Draft: &draft,
	})
	if err != nil {
		return nil, fmt.Errorf("creating PR: %w", err)
	}

	slog.Info("PR created",
		"number", pr.GetNumber(),
		"draft", draft,
		"url", pr.GetHTMLURL())

	return &PullRequest{Number: pr.GetNumber(), URL: pr.GetHTMLURL(), Draft: draft}, nil
}
