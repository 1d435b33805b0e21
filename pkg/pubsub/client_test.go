package pubsub

import (
	"testing"

	"github.com/pawpantry/storefront-api/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	cases := []struct {
		project string
		name    string
		want    string
	}{
		{"pawpantry", "order-events", "projects/pawpantry/topics/order-events"},
		{"pawpantry", "projects/other/topics/x", "projects/other/topics/x"},
		{"", "order-events", ""},
		{"pawpantry", "  ", ""},
	}
	for _, tc := range cases {
		if got := TopicResourceName(tc.project, tc.name); got != tc.want {
			t.Fatalf("TopicResourceName(%q, %q) = %q, want %q", tc.project, tc.name, got, tc.want)
		}
	}
}

func TestTopicNamesSkipsBlank(t *testing.T) {
	if got := topicNames(config.PubSubConfig{}); len(got) != 0 {
		t.Fatalf("expected no topics, got %v", got)
	}
	if got := topicNames(config.PubSubConfig{OrdersTopic: " orders "}); len(got) != 1 || got[0] != "orders" {
		t.Fatalf("unexpected topics %v", got)
	}
}

func TestNilClientPublisher(t *testing.T) {
	var c *Client
	if c.Publisher("orders") != nil {
		t.Fatal("expected nil publisher from nil client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
}
