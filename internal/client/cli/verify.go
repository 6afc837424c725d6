package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/halvardk/vaultctl/internal/common"
	"github.com/halvardk/vaultctl/internal/cryptox"
	"github.com/halvardk/vaultctl/internal/model"
)

// Verify recomputes a local file's SHA-512 and compares it against the
// remote node's recorded hash without transferring any chunk (§12
// "verify", supplemented from the reference client's integrity check).
func (a *App) Verify(ctx context.Context, args []string) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	if len(args) < 2 {
		return common.Newf(common.KindFatal, "usage: verify <remote-path> <local-path>")
	}

	p, err := model.ParsePath(args[0])
	if err != nil {
		return err
	}
	node, err := a.resolver.ResolveStrict(ctx, p)
	if err != nil {
		return err
	}
	if !node.IsFile() {
		return common.Newf(common.KindFatal, "%q is not a file", p.String())
	}

	data, err := os.ReadFile(args[1])
	if err != nil {
		return common.New(common.KindIO, err)
	}
	localHash := cryptox.HashBytesHex(data)

	if localHash != node.HashHex {
		return common.Newf(common.KindHashMismatch, "local %s != remote %s", localHash, node.HashHex)
	}
	fmt.Println("OK: hashes match")
	return nil
}
