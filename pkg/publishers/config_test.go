package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestLoadConfigsFiltersDisabled(t *testing.T) {
	path := writeFile(t, "publishers.yaml", `
publishers:
  - id: hook-off
    type: http
    enabled: false
    http:
      url: https://hooks.local/1
  - id: refresh-topic
    type: sns
    sns:
      topic_arn: arn:aws:sns:eu-north-1:000000000000:locinfo
      region: eu-north-1
      endpoint_url: http://localhost:4566
  - id: hook-on
    type: HTTP
    http:
      url: " https://hooks.local/2 "
`)

	cfgs, err := LoadConfigs(path)
	if err != nil {
		t.Fatalf("LoadConfigs: %v", err)
	}
	if len(cfgs) != 2 || cfgs[0].ID != "refresh-topic" || cfgs[1].ID != "hook-on" {
		t.Fatalf("unexpected configs %#v", cfgs)
	}
	if cfgs[0].SNS.Region != "eu-north-1" || cfgs[0].SNS.EndpointURL != "http://localhost:4566" {
		t.Fatalf("inline aws config not decoded: %#v", cfgs[0].SNS)
	}
	hook := cfgs[1].HTTP
	if cfgs[1].Type != TypeHTTP || hook.URL != "https://hooks.local/2" || hook.Method != "POST" || hook.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("http config not sanitized: %#v", hook)
	}
}

func TestLoadConfigsJSON(t *testing.T) {
	path := writeFile(t, "publishers.json", `{"publishers":[{"id":"ps","type":"gcp_pubsub","gcp_pubsub":{"project_id":"p","topic":"t"}}]}`)
	cfgs, err := LoadConfigs(path)
	if err != nil {
		t.Fatalf("LoadConfigs: %v", err)
	}
	if len(cfgs) != 1 || cfgs[0].GCPPubSub.Topic != "t" {
		t.Fatalf("unexpected configs %#v", cfgs)
	}
}

func TestLoadConfigsRejectsDuplicates(t *testing.T) {
	path := writeFile(t, "publishers.yaml", `
publishers:
  - id: a
    type: http
    http:
      url: https://hooks.local
  - id: a
    type: http
    http:
      url: https://hooks.local
`)
	if _, err := LoadConfigs(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestValidatePublisherConfig(t *testing.T) {
	bad := []PublisherConfig{
		{Type: TypeHTTP},
		{ID: "h1", Type: TypeHTTP},
		{ID: "q1", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "https://sqs.local/q"}},
		{ID: "q2", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "https://sqs.local/q", AWSConfig: AWSConfig{Region: "eu-north-1", AccessKeyID: "only-id"}}},
		{ID: "s1", Type: TypeSNS, SNS: &SNSPublisherConfig{AWSConfig: AWSConfig{Region: "eu-north-1"}}},
		{ID: "g1", Type: TypeGCPPubSub, GCPPubSub: &GCPPubSubPublisherConfig{ProjectID: "p"}},
	}
	for _, cfg := range bad {
		if err := validatePublisherConfig(cfg); err == nil {
			t.Fatalf("expected validation error for %#v", cfg)
		}
	}

	good := PublisherConfig{ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "https://sqs.local/q", AWSConfig: AWSConfig{Region: "eu-north-1"}}}
	if err := validatePublisherConfig(good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
