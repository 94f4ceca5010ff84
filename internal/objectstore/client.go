// Package objectstore to cienki klient HTTP do zewnętrznego
// oss-control-service: wydawanie tymczasowych URL-i i tokenów STS oraz
// fizyczne kasowanie obiektów. Logika serwisu jest poza tym repozytorium.
package objectstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("oss-control-service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("oss-control-service returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// TempURL wydaje tymczasowy URL dostępu do obiektu. downloadFlag=1 wymusza
// pobieranie w przeglądarce pod podaną nazwą pliku.
func (c *Client) TempURL(ctx context.Context, ossPath string, expires time.Duration, downloadFlag int, fileName string) (string, error) {
	params := url.Values{}
	params.Set("filePath", ossPath)
	params.Set("expires", strconv.Itoa(int(expires.Seconds())))
	params.Set("downloadFlag", strconv.Itoa(downloadFlag))
	params.Set("fileName", fileName)

	var result struct {
		URL string `json:"url"`
	}
	if err := c.getJSON(ctx, "/get-url", params, &result); err != nil {
		return "", err
	}
	if result.URL == "" {
		return "", fmt.Errorf("oss-control-service returned an empty url")
	}

	return result.URL, nil
}

type AccessToken struct {
	AccessKeyID     string `json:"accessKeyId"`
	AccessKeySecret string `json:"accessKeySecret"`
	SecurityToken   string `json:"securityToken"`
}

// TempAccessToken wydaje tymczasowe poświadczenia STS do bezpośredniego
// uploadu z przeglądarki.
func (c *Client) TempAccessToken(ctx context.Context, expires time.Duration) (*AccessToken, error) {
	params := url.Values{}
	params.Set("expires", strconv.Itoa(int(expires.Seconds())))

	var token AccessToken
	if err := c.getJSON(ctx, "/get-sts", params, &token); err != nil {
		return nil, err
	}

	return &token, nil
}

type BucketStat struct {
	StorageUsed int64 `json:"storageUsed"`
	ObjectCount int64 `json:"objectCount"`
}

func (c *Client) GetBucketStat(ctx context.Context) (*BucketStat, error) {
	var stat BucketStat
	if err := c.getJSON(ctx, "/get-bucket-stat", nil, &stat); err != nil {
		return nil, err
	}
	return &stat, nil
}

// DeleteObject kasuje obiekt best-effort. false bez błędu oznacza, że serwis
// odpowiedział, ale usunięcie się nie powiodło.
func (c *Client) DeleteObject(ctx context.Context, ossPath string) (bool, error) {
	params := url.Values{}
	params.Set("filePath", ossPath)

	var result struct {
		Result struct {
			Res struct {
				StatusCode int `json:"statusCode"`
			} `json:"res"`
		} `json:"result"`
	}
	if err := c.getJSON(ctx, "/delete-file", params, &result); err != nil {
		return false, err
	}

	return result.Result.Res.StatusCode == http.StatusNoContent, nil
}
