package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/everstacklabs/pricetracker/internal/publish"
)

// PublishResult records what a publish step did.
type PublishResult struct {
	Branch   string
	Commit   string
	PR       *publish.PullRequest
	Uploaded []string
}

// Publish commits the written files and mirrors them to S3, as configured.
// Dry runs and runs that wrote nothing publish nothing.
func (p *Pipeline) Publish(ctx context.Context, rep *Report) (*PublishResult, error) {
	res := &PublishResult{}
	if p.cfg.DryRun || len(rep.Written) == 0 {
		slog.Info("nothing to publish", "dry_run", p.cfg.DryRun)
		return res, nil
	}

	if p.cfg.Publish.Git.Enabled {
		if err := p.publishGit(ctx, rep, res); err != nil {
			return res, err
		}
	}

	if p.cfg.Publish.S3.Enabled {
		s3cfg := p.cfg.Publish.S3
		pub, err := publish.NewS3(ctx, publish.S3Config{
			Bucket:          s3cfg.Bucket,
			Region:          s3cfg.Region,
			Endpoint:        s3cfg.Endpoint,
			PathStyle:       s3cfg.PathStyle,
			Prefix:          s3cfg.Prefix,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
		})
		if err != nil {
			return res, err
		}
		files := p.uploadFiles(rep)
		if err := pub.UploadFiles(ctx, files...); err != nil {
			return res, err
		}
		res.Uploaded = files
	}

	return res, nil
}

// uploadFiles picks the current snapshot files out of what the run wrote.
// Dated history and changelog files stay in git only.
func (p *Pipeline) uploadFiles(rep *Report) []string {
	keep := map[string]bool{
		p.cfg.OutputPath:         true,
		p.cfg.ManifestPath:       true,
		p.latestChangelog():      true,
		p.cfg.Export.ParquetPath: true,
	}
	var files []string
	for _, f := range rep.Written {
		if f != "" && keep[f] {
			files = append(files, f)
		}
	}
	return files
}

func (p *Pipeline) publishGit(ctx context.Context, rep *Report, res *PublishResult) error {
	gh := p.cfg.Publish.GitHub

	gitOps, err := publish.OpenRepo(p.cfg.Publish.Git.RepoPath, gh.Token)
	if err != nil {
		return err
	}
	clean, err := gitOps.Clean()
	if err != nil {
		return err
	}
	if clean {
		slog.Info("no changes to commit")
		return nil
	}

	now := p.now()
	branch := publish.BranchName(now)
	message := publish.CommitMessage(now)

	if err := gitOps.CreateBranch(branch); err != nil {
		return fmt.Errorf("creating branch: %w", err)
	}
	if err := gitOps.AddAll(); err != nil {
		return fmt.Errorf("staging changes: %w", err)
	}
	hash, err := gitOps.Commit(message)
	if err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	res.Branch, res.Commit = branch, hash
	slog.Info("catalog committed", "branch", branch, "commit", hash)

	// Push + PR only when GitHub is configured
	if !p.cfg.GitHubEnabled() {
		return nil
	}
	if err := gitOps.Push(branch); err != nil {
		return fmt.Errorf("pushing: %w", err)
	}

	client := publish.NewGitHub(ctx, gh.Token, gh.Owner, gh.Repo, gh.BaseBranch)
	pr, err := client.OpenPR(ctx, branch, message, rep.ChangeSet)
	if err != nil {
		return err
	}
	res.PR = pr
	return nil
}
