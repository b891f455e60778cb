package pubsub

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"go.uber.org/multierr"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/omanfreight/quote-service/pkg/logger"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNoTopics          = errors.New("at least one pubsub topic is required")
	errClientClosed      = errors.New("pubsub client not initialized")
)

// Client publishes outbox events to a fixed set of topics. Publishers are
// created once per topic and stopped on Close so buffered messages flush.
type Client struct {
	client    *pubsub.Client
	projectID string
	topics    []string

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

// NewClient connects to Pub/Sub and checks every topic the outbox routes to.
func NewClient(ctx context.Context, projectID string, topics []string, logg *logger.Logger) (*Client, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	names, err := topicNames(projectID, topics)
	if err != nil {
		return nil, err
	}

	psClient, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:     psClient,
		projectID:  projectID,
		topics:     names,
		publishers: make(map[string]*pubsub.Publisher, len(names)),
	}
	if err := c.Ping(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "topics", names), "pubsub client initialized")
	}
	return c, nil
}

// topicNames expands and de-duplicates topics into sorted resource names.
func topicNames(projectID string, topics []string) ([]string, error) {
	seen := make(map[string]struct{}, len(topics))
	names := make([]string, 0, len(topics))
	for _, topic := range topics {
		name := TopicResourceName(projectID, topic)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, errNoTopics
	}
	sort.Strings(names)
	return names, nil
}

// Topics returns the resource names checked at startup.
func (c *Client) Topics() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.topics...)
}

// Publisher returns the cached publisher for a topic id or resource name.
// Topics outside the configured set return nil.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	fullName := TopicResourceName(c.projectID, name)
	if !c.knows(fullName) {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if pub, ok := c.publishers[fullName]; ok {
		return pub
	}
	pub := c.client.Publisher(fullName)
	c.publishers[fullName] = pub
	return pub
}

func (c *Client) knows(fullName string) bool {
	if fullName == "" {
		return false
	}
	idx := sort.SearchStrings(c.topics, fullName)
	return idx < len(c.topics) && c.topics[idx] == fullName
}

// Ping looks up every configured topic.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errClientClosed
	}
	var errs error
	for _, name := range c.topics {
		_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: name})
		switch {
		case err == nil:
		case status.Code(err) == codes.NotFound:
			errs = multierr.Append(errs, fmt.Errorf("topic %q does not exist", name))
		default:
			errs = multierr.Append(errs, fmt.Errorf("checking topic %q: %w", name, err))
		}
	}
	return errs
}

// Close flushes and stops every publisher, then releases the client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	c.mu.Lock()
	for name, pub := range c.publishers {
		pub.Stop()
		delete(c.publishers, name)
	}
	c.mu.Unlock()
	return c.client.Close()
}

// TopicResourceName expands a bare topic id into its full resource name.
func TopicResourceName(projectID, name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/topics/") {
		return n
	}
	p := strings.TrimSpace(projectID)
	if p == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/topics/%s", p, n)
}
