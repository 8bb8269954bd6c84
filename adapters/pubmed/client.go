// Package pubmed implements the literature search port against the NCBI
// E-utilities API (esearch + efetch).
package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bedesign/internal/config"
	"bedesign/internal/errors"
	"bedesign/ports"
)

// Client talks to the NCBI E-utilities endpoints
type Client struct {
	baseURL    string
	email      string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a PubMed client from literature configuration
func NewClient(cfg config.LiteratureConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		email:   cfg.Email,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

var _ ports.LiteratureSearchPort = (*Client)(nil)

type esearchResponse struct {
	ESearchResult struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// efetch returns PubmedArticleSet XML; only title and abstract matter here
type efetchArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []efetchArticle `xml:"PubmedArticle"`
}

type efetchArticle struct {
	MedlineCitation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			ArticleTitle string `xml:"ArticleTitle"`
			Abstract     struct {
				Texts []struct {
					Label string `xml:"Label,attr"`
					Text  string `xml:",chardata"`
				} `xml:"AbstractText"`
			} `xml:"Abstract"`
		} `xml:"Article"`
	} `xml:"MedlineCitation"`
}

// Search queries esearch for pharmacokinetics literature on a drug.
// The query restricts to healthy-subject PK and bioequivalence studies,
// matching what parameter extraction downstream can actually use.
func (c *Client) Search(ctx context.Context, inn string, maxResults int) ([]string, error) {
	query := fmt.Sprintf("%s AND (pharmacokinetics OR bioequivalence OR bioavailability) AND healthy", inn)

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", query)
	params.Set("retmax", fmt.Sprintf("%d", maxResults))
	params.Set("retmode", "json")
	params.Set("sort", "relevance")
	c.addIdentity(params)

	body, err := c.get(ctx, "/esearch.fcgi", params)
	if err != nil {
		return nil, errors.CollaboratorUnavailable("literature search", err)
	}

	var result esearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.CollaboratorUnavailable("literature search",
			fmt.Errorf("malformed esearch response: %w", err))
	}
	return result.ESearchResult.IDList, nil
}

// FetchAbstracts resolves PMIDs to titles and abstract text via efetch.
// Articles without an abstract are dropped rather than returned empty.
func (c *Client) FetchAbstracts(ctx context.Context, pmids []string) ([]ports.Article, error) {
	if len(pmids) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(pmids, ","))
	params.Set("retmode", "xml")
	params.Set("rettype", "abstract")
	c.addIdentity(params)

	body, err := c.get(ctx, "/efetch.fcgi", params)
	if err != nil {
		return nil, errors.CollaboratorUnavailable("literature search", err)
	}

	var set efetchArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, errors.CollaboratorUnavailable("literature search",
			fmt.Errorf("malformed efetch response: %w", err))
	}

	articles := make([]ports.Article, 0, len(set.Articles))
	for _, a := range set.Articles {
		abstract := joinAbstract(a)
		if abstract == "" {
			continue
		}
		articles = append(articles, ports.Article{
			PMID:     a.MedlineCitation.PMID,
			Title:    strings.TrimSpace(a.MedlineCitation.Article.ArticleTitle),
			Abstract: abstract,
		})
	}
	return articles, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		// NCBI throttles aggressively without an API key; one retry after
		// a short pause is usually enough for this request volume
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return c.getOnce(ctx, path, params)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("e-utilities returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) getOnce(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("e-utilities returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// addIdentity attaches the contact parameters NCBI asks clients to send
func (c *Client) addIdentity(params url.Values) {
	params.Set("tool", "bedesign")
	if c.email != "" {
		params.Set("email", c.email)
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
}

// joinAbstract flattens structured abstracts into one labelled block
func joinAbstract(a efetchArticle) string {
	texts := a.MedlineCitation.Article.Abstract.Texts
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		if t.Label != "" {
			parts = append(parts, t.Label+": "+text)
		} else {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}
