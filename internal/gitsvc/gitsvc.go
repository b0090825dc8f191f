package gitsvc

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Service materializes a repository working tree for analysis when the
// request names owner/repo but no local path.
type Service struct {
	basePath string
}

func New(basePath string) *Service {
	return &Service{basePath: basePath}
}

func CloneURL(owner, repo string) string {
	return fmt.Sprintf("https://github.com/%s/%s.git", owner, repo)
}

// Ensure clones the repository under the base path, or pulls when a clone
// already exists, and returns the working tree path.
func (s *Service) Ensure(ctx context.Context, owner, repo string) (string, error) {
	if owner == "" || repo == "" {
		return "", fmt.Errorf("owner and repo are required to clone")
	}
	repoPath := filepath.Join(s.basePath, owner, repo)

	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err == nil {
		return repoPath, s.pull(ctx, repoPath)
	}

	if err := os.MkdirAll(filepath.Dir(repoPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create repos directory: %w", err)
	}

	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", CloneURL(owner, repo), repoPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git clone failed: %w", err)
	}
	return repoPath, nil
}

func (s *Service) pull(ctx context.Context, repoPath string) error {
	cmd := exec.CommandContext(ctx, "git", "pull", "--ff-only")
	cmd.Dir = repoPath
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git pull failed: %w", err)
	}
	return nil
}
