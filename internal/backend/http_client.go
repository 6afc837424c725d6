package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/halvardk/vaultctl/internal/common"
	"github.com/halvardk/vaultctl/internal/logging"
	"github.com/halvardk/vaultctl/internal/model"
	"github.com/halvardk/vaultctl/internal/netx"
)

// HTTPClient is the concrete Client backed by the object store's HTTP API.
// It is safe for concurrent use: the bearer token is read under a mutex and
// the underlying http.Client is itself concurrency-safe.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	log     logging.Logger

	mu    sync.RWMutex
	token string
}

// New constructs an HTTPClient against baseURL (no trailing slash). httpc
// may be nil, in which case http.DefaultClient is used.
func New(baseURL string, httpc *http.Client, log logging.Logger) *HTTPClient {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &HTTPClient{baseURL: baseURL, http: httpc, log: log}
}

func (c *HTTPClient) authHeader() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" {
		return nil
	}
	return map[string]string{common.AuthorizationHeaderName: "Bearer " + c.token}
}

func (c *HTTPClient) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPClient) url(format string, args ...any) string {
	return c.baseURL + fmt.Sprintf(format, args...)
}

// --- wire payloads -------------------------------------------------------

type loginRequest struct {
	Email     string `json:"email"`
	AuthToken string `json:"authToken"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type nodeWire struct {
	ID         model.ID       `json:"id"`
	ParentID   model.ID       `json:"parentId"`
	Kind       model.NodeKind `json:"kind"`
	NameHash   string         `json:"nameHash,omitempty"`
	NameEnv    string         `json:"name,omitempty"`
	ModifiedMs int64          `json:"modifiedMs"`
	Trashed    bool           `json:"trashed"`
	Size       int64          `json:"size,omitempty"`
	ChunkCount int            `json:"chunkCount,omitempty"`
	VersionTag string         `json:"versionTag,omitempty"`
	Bucket     string         `json:"bucket,omitempty"`
	Region     string         `json:"region,omitempty"`
}

func (w nodeWire) toNode() model.Node {
	return model.Node{
		ID:         w.ID,
		ParentID:   w.ParentID,
		Kind:       w.Kind,
		Name:       w.NameEnv,
		ModifiedMs: w.ModifiedMs,
		Trashed:    w.Trashed,
		Size:       w.Size,
		ChunkCount: w.ChunkCount,
		VersionTag: w.VersionTag,
		Region:     model.Region{Bucket: w.Bucket, Region: w.Region},
	}
}

type listDirectoryResponse struct {
	Children []nodeWire `json:"children"`
}

type createFolderRequest struct {
	ParentID model.ID `json:"parentId"`
	Name     string   `json:"name"`
}

type beginUploadRequest struct {
	ParentID       model.ID `json:"parentId"`
	NameHash       string   `json:"nameHash"`
	IdempotencyKey string   `json:"idempotencyKey"`
}

type beginUploadResponse struct {
	FileUUID  string `json:"fileUuid"`
	UploadKey string `json:"uploadKey"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
}

type finishUploadRequest struct {
	FileUUID  string `json:"fileUuid"`
	UploadKey string `json:"uploadKey"`
	Metadata  string `json:"metadata"`
	Hash      string `json:"hash"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type moveRequest struct {
	NewParentID model.ID `json:"newParentId"`
}

type userInfoResponse struct {
	Email        string `json:"email"`
	StorageUsed  int64  `json:"storageUsed"`
	StorageLimit int64  `json:"storageLimit"`
}

// --- helpers ---------------------------------------------------------------

func postJSON[Req, Resp any](ctx context.Context, c *HTTPClient, mode retryMode, url string, req Req) (Resp, error) {
	var resp Resp
	body, err := json.Marshal(req)
	if err != nil {
		return resp, common.New(common.KindFatal, err)
	}
	var raw []byte
	err = withRetry(ctx, mode, func(ctx context.Context) error {
		var callErr error
		raw, callErr = netx.PostJSON(ctx, c.http, url, body, c.authHeader())
		return callErr
	})
	if err != nil {
		if c.log != nil {
			c.log.Error(ctx, "backend request failed", "url", url, "err", err)
		}
		return resp, err
	}
	if len(raw) == 0 {
		return resp, nil
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return resp, common.New(common.KindFatal, err)
	}
	return resp, nil
}

func getJSON[Resp any](ctx context.Context, c *HTTPClient, url string) (Resp, error) {
	var resp Resp
	var raw []byte
	err := withRetry(ctx, retryOnAnyTransient, func(ctx context.Context) error {
		var callErr error
		raw, callErr = netx.GetBytes(ctx, c.http, url, c.authHeader())
		return callErr
	})
	if err != nil {
		if c.log != nil {
			c.log.Error(ctx, "backend request failed", "url", url, "err", err)
		}
		return resp, err
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return resp, common.New(common.KindFatal, err)
	}
	return resp, nil
}

// --- Client methods ----------------------------------------------------

func (c *HTTPClient) Login(ctx context.Context, email, authToken string) (string, error) {
	resp, err := postJSON[loginRequest, loginResponse](ctx, c, retryOnConnectionOnly, c.url("/api/v1/login"),
		loginRequest{Email: email, AuthToken: authToken})
	if err != nil {
		return "", err
	}
	c.setToken(resp.Token)
	return resp.Token, nil
}

func (c *HTTPClient) ListDirectory(ctx context.Context, folderID model.ID) ([]model.Node, error) {
	resp, err := getJSON[listDirectoryResponse](ctx, c, c.url("/api/v1/dir/%s", folderID))
	if err != nil {
		return nil, err
	}
	nodes := make([]model.Node, 0, len(resp.Children))
	for _, w := range resp.Children {
		nodes = append(nodes, w.toNode())
	}
	return nodes, nil
}

func (c *HTTPClient) CreateFolder(ctx context.Context, parentID model.ID, nameEnvelope string) (model.Node, error) {
	w, err := postJSON[createFolderRequest, nodeWire](ctx, c, retryOnAnyTransient, c.url("/api/v1/dir"),
		createFolderRequest{ParentID: parentID, Name: nameEnvelope})
	if err != nil {
		return model.Node{}, err
	}
	return w.toNode(), nil
}

func (c *HTTPClient) GetFileInfo(ctx context.Context, id model.ID) (model.Node, error) {
	w, err := getJSON[nodeWire](ctx, c, c.url("/api/v1/item/%s", id))
	if err != nil {
		return model.Node{}, err
	}
	return w.toNode(), nil
}

func (c *HTTPClient) BeginUpload(ctx context.Context, parentID model.ID, nameHash, idempotencyKey string) (UploadSession, error) {
	resp, err := postJSON[beginUploadRequest, beginUploadResponse](ctx, c, retryOnAnyTransient, c.url("/api/v1/upload/begin"),
		beginUploadRequest{ParentID: parentID, NameHash: nameHash, IdempotencyKey: idempotencyKey})
	if err != nil {
		return UploadSession{}, err
	}
	return UploadSession{
		FileUUID:  resp.FileUUID,
		UploadKey: resp.UploadKey,
		Region:    model.Region{Bucket: resp.Bucket, Region: resp.Region},
	}, nil
}

func (c *HTTPClient) PutChunk(ctx context.Context, sess UploadSession, index int, ciphertext []byte) error {
	url := c.url("/api/v1/upload/%s/chunk/%d?key=%s", sess.FileUUID, index, sess.UploadKey)
	return withRetry(ctx, retryOnAnyTransient, func(ctx context.Context) error {
		_, err := netx.PutBytes(ctx, c.http, url, ciphertext, c.authHeader())
		return err
	})
}

func (c *HTTPClient) FinishUpload(ctx context.Context, sess UploadSession, metadataEnvelope, hashHex string) (model.Node, error) {
	w, err := postJSON[finishUploadRequest, nodeWire](ctx, c, retryOnConnectionOnly, c.url("/api/v1/upload/finish"),
		finishUploadRequest{FileUUID: sess.FileUUID, UploadKey: sess.UploadKey, Metadata: metadataEnvelope, Hash: hashHex})
	if err != nil {
		return model.Node{}, err
	}
	return w.toNode(), nil
}

func (c *HTTPClient) GetChunk(ctx context.Context, fileID model.ID, index int) ([]byte, error) {
	var raw []byte
	err := withRetry(ctx, retryOnAnyTransient, func(ctx context.Context) error {
		var callErr error
		raw, callErr = netx.GetBytes(ctx, c.http, c.url("/api/v1/file/%s/chunk/%d", fileID, index), c.authHeader())
		return callErr
	})
	return raw, err
}

func (c *HTTPClient) Move(ctx context.Context, nodeID, newParentID model.ID) error {
	_, err := postJSON[moveRequest, struct{}](ctx, c, retryOnConnectionOnly, c.url("/api/v1/item/%s/move", nodeID),
		moveRequest{NewParentID: newParentID})
	return err
}

func (c *HTTPClient) Rename(ctx context.Context, nodeID model.ID, newNameEnvelope string) error {
	_, err := postJSON[renameRequest, struct{}](ctx, c, retryOnConnectionOnly, c.url("/api/v1/item/%s/rename", nodeID),
		renameRequest{Name: newNameEnvelope})
	return err
}

func (c *HTTPClient) Trash(ctx context.Context, nodeID model.ID) error {
	_, err := postJSON[struct{}, struct{}](ctx, c, retryOnAnyTransient, c.url("/api/v1/item/%s/trash", nodeID), struct{}{})
	return err
}

func (c *HTTPClient) Restore(ctx context.Context, nodeID model.ID) error {
	_, err := postJSON[struct{}, struct{}](ctx, c, retryOnAnyTransient, c.url("/api/v1/item/%s/restore", nodeID), struct{}{})
	return err
}

func (c *HTTPClient) Delete(ctx context.Context, nodeID model.ID) error {
	_, err := postJSON[struct{}, struct{}](ctx, c, retryOnAnyTransient, c.url("/api/v1/item/%s/delete", nodeID), struct{}{})
	return err
}

func (c *HTTPClient) ListTrash(ctx context.Context) ([]model.Node, error) {
	resp, err := getJSON[listDirectoryResponse](ctx, c, c.url("/api/v1/trash"))
	if err != nil {
		return nil, err
	}
	nodes := make([]model.Node, 0, len(resp.Children))
	for _, w := range resp.Children {
		nodes = append(nodes, w.toNode())
	}
	return nodes, nil
}

func (c *HTTPClient) UserInfo(ctx context.Context) (UserInfo, error) {
	resp, err := getJSON[userInfoResponse](ctx, c, c.url("/api/v1/user/info"))
	if err != nil {
		return UserInfo{}, err
	}
	return UserInfo{Email: resp.Email, StorageUsed: resp.StorageUsed, StorageLimit: resp.StorageLimit}, nil
}

var _ Client = (*HTTPClient)(nil)
