package pubmed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bedesign/internal/config"
)

func newTestClient(serverURL string) *Client {
	return NewClient(config.LiteratureConfig{
		BaseURL: serverURL,
		Email:   "ops@example.org",
		Timeout: 5 * time.Second,
	})
}

func TestSearch(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/esearch.fcgi" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("term")
		if r.URL.Query().Get("email") != "ops@example.org" {
			t.Error("Expected email parameter on the request")
		}
		w.Write([]byte(`{"esearchresult":{"count":"2","idlist":["39871234","39875678"]}}`))
	}))
	defer server.Close()

	pmids, err := newTestClient(server.URL).Search(context.Background(), "ibuprofen", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(pmids) != 2 || pmids[0] != "39871234" {
		t.Errorf("Unexpected PMIDs %v", pmids)
	}
	for _, term := range []string{"ibuprofen", "pharmacokinetics", "bioequivalence", "healthy"} {
		if !strings.Contains(gotQuery, term) {
			t.Errorf("Query %q missing term %q", gotQuery, term)
		}
	}
}

func TestSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), "ibuprofen", 10)
	if err == nil {
		t.Fatal("Expected error for server failure")
	}
}

func TestFetchAbstracts(t *testing.T) {
	const response = `<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>39871234</PMID>
      <Article>
        <ArticleTitle>Bioequivalence of two ibuprofen formulations</ArticleTitle>
        <Abstract>
          <AbstractText Label="METHODS">A randomized crossover study.</AbstractText>
          <AbstractText Label="RESULTS">Intra-subject CV was 24.5%.</AbstractText>
        </Abstract>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>39875678</PMID>
      <Article>
        <ArticleTitle>A study without an abstract</ArticleTitle>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/efetch.fcgi" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "39871234,39875678" {
			t.Errorf("Unexpected id parameter %q", got)
		}
		w.Write([]byte(response))
	}))
	defer server.Close()

	articles, err := newTestClient(server.URL).FetchAbstracts(context.Background(), []string{"39871234", "39875678"})
	if err != nil {
		t.Fatalf("FetchAbstracts failed: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("Expected 1 article with an abstract, got %d", len(articles))
	}
	a := articles[0]
	if a.PMID != "39871234" {
		t.Errorf("Unexpected PMID %s", a.PMID)
	}
	if a.Title != "Bioequivalence of two ibuprofen formulations" {
		t.Errorf("Unexpected title %q", a.Title)
	}
	if !strings.Contains(a.Abstract, "METHODS: A randomized crossover study.") {
		t.Errorf("Expected labelled section in abstract, got %q", a.Abstract)
	}
	if !strings.Contains(a.Abstract, "24.5%") {
		t.Errorf("Expected results text in abstract, got %q", a.Abstract)
	}
}

func TestFetchAbstractsEmptyInput(t *testing.T) {
	articles, err := newTestClient("http://unused.invalid").FetchAbstracts(context.Background(), nil)
	if err != nil {
		t.Fatalf("Expected no error for empty input, got %v", err)
	}
	if articles != nil {
		t.Errorf("Expected nil result for empty input, got %v", articles)
	}
}
