package hub

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/cunhaax/dev-gpt/internal/retry"
)

// Client talks to the executor hub: it submits candidate builds and checks
// whether an executor has been published. The debug loop only ever needs
// these two operations plus ExtractError over the returned log.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Config configures the hub client.
type Config struct {
	URL          string        `json:"url"`
	Token        string        `json:"token"`
	PollInterval time.Duration `json:"poll_interval"`
	Timeout      time.Duration `json:"timeout"`
}

// pushRequest models the POST payload to /api/v1/executors.
type pushRequest struct {
	RequestID        string `json:"request_id"`
	Name             string `json:"name"`
	ArchiveZipBase64 string `json:"archive_zip_base64"`
}

// buildStatusResponse models GET /api/v1/builds/:id.
type buildStatusResponse struct {
	Status string `json:"status"`
	Log    string `json:"log,omitempty"`
}

// New creates a hub client. Polling is paced by a rate limiter so a long
// build does not hammer the status endpoint.
func New(config Config) *Client {
	if config.PollInterval <= 0 {
		config.PollInterval = 3 * time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Minute
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(config.PollInterval), 1),
	}
}

// Push archives the candidate directory, submits it as a build, waits for
// the build to finish and returns the raw build log. A non-empty log with a
// failed status is still returned without error: error detection is the
// caller's job via ExtractError.
func (c *Client) Push(ctx context.Context, dir string) (string, error) {
	WarnIfTokenExpiring(c.config.Token)

	zipData, err := zipDirectory(dir)
	if err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", dir, err)
	}

	payload := pushRequest{
		RequestID:        uuid.NewString(),
		Name:             filepath.Base(filepath.Dir(dir)),
		ArchiveZipBase64: base64.StdEncoding.EncodeToString(zipData),
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal push request: %w", err)
	}

	var buildID string
	result := retry.WithBackoff(ctx, retry.HubConfig(), func() error {
		id, submitErr := c.submitBuild(ctx, jsonData)
		if submitErr != nil {
			return submitErr
		}
		buildID = id
		return nil
	})
	if !result.Success {
		return "", fmt.Errorf("failed to submit build after %d attempts: %w", result.Attempts, result.LastError)
	}

	log.Info().Str("build_id", buildID).Str("dir", dir).Msg("Build submitted, waiting for hub")
	return c.waitForBuild(ctx, buildID)
}

func (c *Client) submitBuild(ctx context.Context, jsonData []byte) (string, error) {
	endpoint := strings.TrimSuffix(c.config.URL, "/") + "/api/v1/executors"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send push request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read push response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("hub returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		BuildID string `json:"build_id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse push response: %w", err)
	}
	if result.BuildID == "" {
		return "", fmt.Errorf("build_id not found in hub response")
	}
	return result.BuildID, nil
}

func (c *Client) waitForBuild(ctx context.Context, buildID string) (string, error) {
	deadline := time.Now().Add(c.config.Timeout)
	endpoint := strings.TrimSuffix(c.config.URL, "/") + "/api/v1/builds/" + buildID

	for {
		if time.Now().After(deadline) {
			return "", fmt.Errorf("build %s did not finish within %v", buildID, c.config.Timeout)
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		status, err := c.fetchBuildStatus(ctx, endpoint)
		if err != nil {
			return "", err
		}

		switch status.Status {
		case "succeeded", "failed":
			return status.Log, nil
		case "pending", "running":
			// keep polling
		default:
			return "", fmt.Errorf("hub reported unknown build status %q", status.Status)
		}
	}
}

func (c *Client) fetchBuildStatus(ctx context.Context, endpoint string) (*buildStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch build status: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read status response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hub returned status %d: %s", resp.StatusCode, string(body))
	}

	var status buildStatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status response: %w", err)
	}
	return &status, nil
}

// IsPublished reports whether an executor is discoverable under its name.
// The debug loop treats "build looked clean but executor absent" as fatal,
// so this check must not swallow transport errors.
func (c *Client) IsPublished(ctx context.Context, name string) (bool, error) {
	endpoint := strings.TrimSuffix(c.config.URL, "/") + "/api/v1/executors/" + name

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to query hub registry: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("hub registry returned status %d", resp.StatusCode)
	}
}

// zipDirectory archives every regular file in dir (non-recursive dirs
// included) into an in-memory zip.
func zipDirectory(dir string) ([]byte, error) {
	buf := new(bytes.Buffer)
	zipWriter := zip.NewWriter(buf)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		fileWriter, err := zipWriter.Create(filepath.ToSlash(rel))
		if err != nil {
			return fmt.Errorf("failed to create zip entry %s: %w", rel, err)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		_, err = fileWriter.Write(content)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zip writer: %w", err)
	}
	return buf.Bytes(), nil
}
