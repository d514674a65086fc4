package git

import (
	"context"
	"regexp"
	"strings"

	"github.com/markrai/gitpow/internal/errors"
)

// CheckoutBranch switches the working copy to branch.
func CheckoutBranch(ctx context.Context, r Runner, dir, branch string) (string, error) {
	if strings.TrimSpace(branch) == "" {
		return "", errors.New(errors.ErrTypeValidation, "branch name is required")
	}
	return r.Run(ctx, dir, "checkout", branch)
}

// CheckoutCommit detaches HEAD at sha.
func CheckoutCommit(ctx context.Context, r Runner, dir, sha string) (string, error) {
	if strings.TrimSpace(sha) == "" {
		return "", errors.New(errors.ErrTypeValidation, "commit id is required")
	}
	return r.Run(ctx, dir, "checkout", "--detach", sha)
}

var checkoutMove = regexp.MustCompile(`^checkout: moving from (\S+) to (\S+)$`)

var fullHash = regexp.MustCompile(`^[0-9a-f]{40}$`)

// PreviousBranch returns the most recent branch HEAD was moved away from,
// skipping detached positions. ok is false when the reflog has none.
func PreviousBranch(ctx context.Context, r Runner, dir string) (branch string, ok bool, err error) {
	out, err := r.Run(ctx, dir, "reflog", "show", "--format=%gs", "-n", "200", "HEAD")
	if err != nil {
		// 没有 reflog（例如全新仓库）不算错误
		return "", false, nil
	}
	for _, line := range strings.Split(out, "\n") {
		m := checkoutMove.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		from := m[1]
		if fullHash.MatchString(from) || from == "HEAD" {
			continue
		}
		return from, true, nil
	}
	return "", false, nil
}
