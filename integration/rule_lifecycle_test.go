package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	alarmsmem "telemetry-go/internal/alarms/memory"
	"telemetry-go/internal/api"
	"telemetry-go/internal/config"
	"telemetry-go/internal/diagnostics"
	"telemetry-go/internal/domain"
	"telemetry-go/internal/events"
	eventsmem "telemetry-go/internal/events/memory"
	"telemetry-go/internal/rules"
	"telemetry-go/internal/storage"
	"telemetry-go/internal/storageadapter"
)

// stack holds the in-process deployment under test.
type stack struct {
	baseURL string
	adapter *storageadapter.Server
	server  *api.Server
	alarms  *alarmsmem.Service
	queue   *eventsmem.Queue
}

func startStack() *stack {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	// Storage adapter service on a random port
	adapterLn, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())
	adapter := storageadapter.NewServer(storageadapter.NewMemoryStore(), "memory", logger)
	go func() {
		defer GinkgoRecover()
		_ = adapter.App().Listener(adapterLn)
	}()

	// Rule service wired to the adapter over real HTTP
	store := storage.NewClient(&config.StorageAdapterConfig{
		URL:     "http://" + adapterLn.Addr().String(),
		Timeout: 5 * time.Second,
	})
	diag := diagnostics.NewEmitter(diagnostics.NoopSink{}, logger)
	repo := rules.NewRepository(store, diag, logger)
	alarmsSvc := alarmsmem.NewService()
	aggregator := rules.NewAggregator(repo, alarmsSvc, logger)
	queue := eventsmem.NewQueue(100)
	publisher := events.NewPublisher(queue, logger)

	server := api.NewServer(api.ServerDeps{
		Config: &config.ServerConfig{
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  5 * time.Second,
		},
		Logger:              logger,
		RuleHandler:         api.NewRuleHandler(repo, publisher, logger),
		AlarmHandler:        api.NewAlarmHandler(alarmsSvc, logger),
		AlarmsByRuleHandler: api.NewAlarmsByRuleHandler(aggregator, alarmsSvc, logger),
	})

	serverLn, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())
	go func() {
		defer GinkgoRecover()
		_ = server.App().Listener(serverLn)
	}()

	s := &stack{
		baseURL: "http://" + serverLn.Addr().String(),
		adapter: adapter,
		server:  server,
		alarms:  alarmsSvc,
		queue:   queue,
	}

	// Wait for both listeners to serve
	Eventually(func() error {
		resp, err := http.Get(s.baseURL + "/healthz")
		if err != nil {
			return err
		}
		resp.Body.Close()
		return nil
	}, 5*time.Second, 50*time.Millisecond).Should(Succeed())

	return s
}

func (s *stack) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(ctx)
	_ = s.adapter.Shutdown(ctx)
	_ = s.queue.Close()
}

// envelope mirrors the API response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *stack) do(method, path string, body interface{}) (*http.Response, envelope) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.baseURL+path, bodyReader)
	Expect(err).NotTo(HaveOccurred())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	if len(raw) > 0 {
		Expect(json.Unmarshal(raw, &env)).To(Succeed())
	}
	return resp, env
}

func decode(env envelope, target interface{}) {
	Expect(json.Unmarshal(env.Data, target)).To(Succeed())
}

var _ = Describe("Rule lifecycle over the storage adapter", Ordered, func() {
	var s *stack

	BeforeAll(func() {
		s = startStack()
	})

	AfterAll(func() {
		s.stop()
	})

	Describe("Health check", func() {
		It("reports healthy", func() {
			resp, env := s.do("GET", "/healthz", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(env.Success).To(BeTrue())
		})
	})

	Describe("Creating rules", func() {
		var created domain.Rule

		It("creates a rule with store-assigned id and version", func() {
			resp, env := s.do("POST", "/v1/rules", map[string]interface{}{
				"name":    "High Temperature",
				"groupId": "chillers",
				"enabled": true,
			})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			decode(env, &created)
			Expect(created.ID).NotTo(BeEmpty())
			Expect(created.ETag).NotTo(BeEmpty())
			Expect(created.DateCreated).To(Equal(created.DateModified))
		})

		It("round-trips the rule through the adapter", func() {
			resp, env := s.do("GET", "/v1/rules/"+created.ID, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var got domain.Rule
			decode(env, &got)
			Expect(got.Name).To(Equal("High Temperature"))
			Expect(got.ETag).To(Equal(created.ETag))
		})

		It("rejects a rule without a name", func() {
			resp, env := s.do("POST", "/v1/rules", map[string]interface{}{"enabled": true})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(env.Error).NotTo(BeNil())
			Expect(env.Error.Code).To(Equal("VALIDATION_FAILED"))
		})

		It("publishes rule events for the notification stream", func() {
			Expect(s.queue.Len()).To(BeNumerically(">", 0))
		})
	})

	Describe("Updating rules", func() {
		It("preserves DateCreated across updates", func() {
			_, env := s.do("PUT", "/v1/rules/durable-rule", map[string]interface{}{
				"name": "v1",
			})
			var v1 domain.Rule
			decode(env, &v1)

			resp, env := s.do("PUT", "/v1/rules/durable-rule", map[string]interface{}{
				"name": "v2",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var v2 domain.Rule
			decode(env, &v2)
			Expect(v2.DateCreated).To(Equal(v1.DateCreated))
			Expect(v2.Name).To(Equal("v2"))
			Expect(v2.ETag).NotTo(Equal(v1.ETag))
		})
	})

	Describe("Deleting rules", func() {
		It("soft-deletes and refuses revival", func() {
			_, env := s.do("POST", "/v1/rules", map[string]interface{}{"name": "doomed"})
			var doomed domain.Rule
			decode(env, &doomed)

			resp, _ := s.do("DELETE", "/v1/rules/"+doomed.ID, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			// Deleting again is still a success
			resp, _ = s.do("DELETE", "/v1/rules/"+doomed.ID, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			// The tombstone is retrievable on demand
			resp, env = s.do("GET", "/v1/rules/"+doomed.ID, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var tombstone domain.Rule
			decode(env, &tombstone)
			Expect(tombstone.Deleted).To(BeTrue())

			// But cannot be written through
			resp, _ = s.do("PUT", "/v1/rules/"+doomed.ID, map[string]interface{}{
				"name": "revived",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("excludes deleted rules from listings", func() {
			_, env := s.do("GET", "/v1/rules?order=asc&limit=1000", nil)
			var page []domain.Rule
			decode(env, &page)
			for _, rule := range page {
				Expect(rule.Deleted).To(BeFalse())
			}
		})
	})

	Describe("Listing rules", func() {
		It("filters by group case-insensitively", func() {
			_, env := s.do("GET", "/v1/rules?groupId=CHILLERS&order=asc", nil)
			var page []domain.Rule
			decode(env, &page)
			Expect(page).NotTo(BeEmpty())
			for _, rule := range page {
				Expect(rule.GroupID).To(Equal("chillers"))
			}
		})

		It("rejects invalid page bounds before any storage call", func() {
			resp, _ := s.do("GET", "/v1/rules?limit=0", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Alarm aggregation", func() {
		It("counts alarms per rule with most-recent alarm detail", func() {
			_, env := s.do("POST", "/v1/rules", map[string]interface{}{"name": "noisy"})
			var noisy domain.Rule
			decode(env, &noisy)

			at := time.Now().UTC().Add(-time.Hour)
			for i := 0; i < 3; i++ {
				_, err := s.alarms.Create(context.Background(), &domain.Alarm{
					RuleID:      noisy.ID,
					DeviceID:    "device-1",
					DateCreated: at.Add(time.Duration(i) * time.Minute),
				})
				Expect(err).NotTo(HaveOccurred())
			}

			resp, env := s.do("GET", "/v1/alarmsbyrule", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var counts []domain.AlarmCountByRule
			decode(env, &counts)
			Expect(counts).To(HaveLen(1))
			Expect(counts[0].Rule.ID).To(Equal(noisy.ID))
			Expect(counts[0].Count).To(Equal(3))
			Expect(counts[0].Status).To(Equal(domain.AlarmStatusOpen))
		})
	})

	Describe("Bulk deletion", func() {
		It("deletes a batch of rules in one call", func() {
			var ids []string
			for _, name := range []string{"bulk-a", "bulk-b"} {
				_, env := s.do("POST", "/v1/rules", map[string]interface{}{"name": name})
				var rule domain.Rule
				decode(env, &rule)
				ids = append(ids, rule.ID)
			}

			resp, _ := s.do("POST", "/v1/rules/delete", map[string]interface{}{"items": ids})
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			for _, id := range ids {
				_, env := s.do("GET", "/v1/rules/"+id, nil)
				var rule domain.Rule
				decode(env, &rule)
				Expect(rule.Deleted).To(BeTrue())
			}
		})
	})
})
