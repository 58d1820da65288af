// Command example demonstrates embedding the content loader with two
// producers that share a fetch, plus a third that only participates in
// filtered cycles.
//
// Run with: go run ./example
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/helga-agentur/contentloader"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// mock content origin: articles plus a teaser endpoint
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/articles":
			fmt.Fprintf(w, "articles page=%s", r.URL.Query().Get("page"))
		case "/api/teaser":
			http.Error(w, "no teaser for that tag", http.StatusNotFound)
		default:
			http.NotFound(w, r)
		}
	}))
	defer origin.Close()

	pool, err := contentloader.New(contentloader.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var wg sync.WaitGroup
	handler := func(name string) contentloader.HandleFunc {
		return func(u contentloader.StatusUpdate) {
			fmt.Printf("[%s] %s %s", name, u.Status, u.URL)
			if u.Status.Terminal() {
				fmt.Printf(" content=%q", u.Content)
				wg.Done()
			}
			fmt.Println()
		}
	}

	// the list and the counter both want the article payload: one fetch,
	// two deliveries
	list, _ := contentloader.NewProducer(
		contentloader.Tagged(contentloader.MustBaseURL(origin.URL+"/api/articles"), "replace"),
		handler("article-list"),
		contentloader.WithName("article-list"),
	)
	counter, _ := contentloader.NewProducer(
		contentloader.MustBaseURL(origin.URL+"/api/articles"),
		handler("article-counter"),
		contentloader.WithName("article-counter"),
	)
	teaser, _ := contentloader.NewProducer(
		contentloader.SkipOnReset(contentloader.MustTemplate(origin.URL+"/api/teaser?tag={{.tag}}")),
		handler("teaser"),
		contentloader.WithName("teaser"),
	)

	for _, p := range []contentloader.Producer{list, counter, teaser} {
		if err := pool.RegisterProducer(p); err != nil {
			logger.Error("registration failed", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// a filtered interaction: two unique URLs, three producers
	wg.Add(3)
	err = pool.StartCycle(ctx, contentloader.RequestContext{
		Params: url.Values{"page": {"2"}, "tag": {"sports"}},
	})
	if err != nil {
		logger.Error("cycle failed", "error", err)
		os.Exit(1)
	}
	wg.Wait()

	// a reset interaction: the teaser opts out
	wg.Add(2)
	err = pool.StartCycle(ctx, contentloader.RequestContext{Reset: true})
	if err != nil {
		logger.Error("cycle failed", "error", err)
		os.Exit(1)
	}
	wg.Wait()
}
