package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SupabaseBucket talks to a Supabase storage bucket over its REST API.
type SupabaseBucket struct {
	projectURL string
	key        string
	bucket     string
	client     *http.Client
}

func NewSupabaseBucket(projectURL, serviceKey, bucket string) *SupabaseBucket {
	return &SupabaseBucket{
		projectURL: strings.TrimRight(projectURL, "/"),
		key:        serviceKey,
		bucket:     bucket,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// PublicURL returns the public address of an object.
func (b *SupabaseBucket) PublicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", b.projectURL, b.bucket, key)
}

func (b *SupabaseBucket) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", b.projectURL, b.bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if err := b.do(req, nil); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return b.PublicURL(key), nil
}

type listRequest struct {
	Prefix string `json:"prefix"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type listedObject struct {
	Name string `json:"name"`
}

const listPageSize = 1000

// List returns the keys of the objects directly under prefix. Supabase lists
// folders, so the prefix is treated as one.
func (b *SupabaseBucket) List(ctx context.Context, prefix string) ([]string, error) {
	folder := strings.TrimSuffix(prefix, "/")
	url := fmt.Sprintf("%s/storage/v1/object/list/%s", b.projectURL, b.bucket)

	keys := []string{}
	for offset := 0; ; offset += listPageSize {
		payload, err := json.Marshal(listRequest{Prefix: folder, Limit: listPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("build list request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		var page []listedObject
		if err := b.do(req, &page); err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, obj := range page {
			if folder == "" {
				keys = append(keys, obj.Name)
				continue
			}
			keys = append(keys, folder+"/"+obj.Name)
		}
		if len(page) < listPageSize {
			return keys, nil
		}
	}
}

func (b *SupabaseBucket) Remove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	payload, err := json.Marshal(map[string][]string{"prefixes": keys})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/storage/v1/object/%s", b.projectURL, b.bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := b.do(req, nil); err != nil {
		return fmt.Errorf("remove objects: %w", err)
	}
	return nil
}

func (b *SupabaseBucket) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+b.key)
	req.Header.Set("apikey", b.key)

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
