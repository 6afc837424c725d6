package cli

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/halvardk/vaultctl/internal/common"
	"github.com/halvardk/vaultctl/internal/credstore"
	"github.com/halvardk/vaultctl/internal/cryptox"
)

// saltForEmail derives a deterministic per-account KDF salt from the
// account email. The backend API this client talks to would normally hand
// back a server-issued salt on a pre-login lookup; that endpoint is
// deployment-specific and outside §6's logical endpoint list, so the salt
// is derived locally instead, deterministically, from the one piece of
// account identity the client always has offline.
func saltForEmail(email string) []byte {
	sum := sha256.Sum256([]byte("vaultctl-kdf-salt:" + email))
	return sum[:]
}

// Login prompts for an email and password, derives the master key and
// auth token (§4.1), authenticates against the backend, and persists the
// result via the credential provider (§6).
func (a *App) Login(ctx context.Context, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	email, err := GetSimpleText(reader, "Enter email")
	if err != nil {
		return common.New(common.KindIO, err)
	}
	password, err := GetPassword()
	if err != nil {
		return common.New(common.KindIO, err)
	}
	defer common.WipeByteArray(password)

	masterKey, authToken := cryptox.DeriveKeys(password, saltForEmail(email))
	defer common.WipeByteArray(masterKey)

	authTokenHex := hex.EncodeToString(authToken)
	if _, err := a.client.Login(ctx, email, authTokenHex); err != nil {
		return err
	}

	if err := a.creds.Save(credstore.Credentials{
		Email:        email,
		MasterKeyHex: hex.EncodeToString(masterKey),
		AuthToken:    authTokenHex,
		BaseURL:      a.cfg.BaseURL,
	}); err != nil {
		return err
	}

	fmt.Println("Login successful.")
	return nil
}

// Logout clears the persisted credential file. It does not attempt to
// invalidate the session server-side: that is a bearer token expiring on
// its own schedule, not a core concern.
func (a *App) Logout(ctx context.Context) error {
	return a.creds.Clear()
}

// Whoami prints the account info of the currently logged-in user.
func (a *App) Whoami(ctx context.Context) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	info, err := a.client.UserInfo(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s  (%d / %d bytes used)\n", info.Email, info.StorageUsed, info.StorageLimit)
	return nil
}
