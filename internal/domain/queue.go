package domain

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const MaxQueueNameLength = 255

// Submit strategy types
const (
	SubmitBurst                  = "BURST"
	SubmitBatch                  = "BATCH"
	SubmitSequentialByOriginator = "SEQUENTIAL_BY_ORIGINATOR"
	SubmitSequentialByTenant     = "SEQUENTIAL_BY_TENANT"
	SubmitSequential             = "SEQUENTIAL"
)

// Processing strategy types
const (
	ProcessingSkipAllFailures            = "SKIP_ALL_FAILURES"
	ProcessingSkipAllFailuresAndTimedOut = "SKIP_ALL_FAILURES_AND_TIMED_OUT"
	ProcessingRetryAll                   = "RETRY_ALL"
	ProcessingRetryFailed                = "RETRY_FAILED"
	ProcessingRetryTimedOut              = "RETRY_TIMED_OUT"
	ProcessingRetryFailedAndTimedOut     = "RETRY_FAILED_AND_TIMED_OUT"
)

// Queue is a named message-queue definition owned by one tenant
type Queue struct {
	ID          string `json:"id" db:"id"`
	TenantID    string `json:"tenant_id" db:"tenant_id"`
	ServiceType string `json:"service_type" db:"service_type"`
	Name        string `json:"name" db:"name"`

	// Consumer configuration
	Topic                 string `json:"topic" db:"topic"`
	PollInterval          int    `json:"poll_interval" db:"poll_interval"`
	Partitions            int    `json:"partitions" db:"partitions"`
	ConsumerPerPartition  bool   `json:"consumer_per_partition" db:"consumer_per_partition"`
	PackProcessingTimeout int64  `json:"pack_processing_timeout" db:"pack_processing_timeout"`

	SubmitStrategy     SubmitStrategy     `json:"submit_strategy" db:"submit_strategy"`
	ProcessingStrategy ProcessingStrategy `json:"processing_strategy" db:"processing_strategy"`
	AdditionalInfo     JSONObject         `json:"additional_info,omitempty" db:"additional_info"`

	CreatedTime time.Time `json:"created_time" db:"created_time"`
}

// SubmitStrategy controls how messages are handed to consumers
type SubmitStrategy struct {
	Type      string `json:"type"`
	BatchSize int    `json:"batch_size"`
}

// ProcessingStrategy controls how failed or timed out packs are retried
type ProcessingStrategy struct {
	Type                   string  `json:"type"`
	Retries                int     `json:"retries"`
	FailurePercentage      float64 `json:"failure_percentage"`
	PauseBetweenRetries    int64   `json:"pause_between_retries"`
	MaxPauseBetweenRetries int64   `json:"max_pause_between_retries"`
}

// Value stores the strategy as a JSON document
func (s SubmitStrategy) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan reads the strategy from a JSON document
func (s *SubmitStrategy) Scan(src interface{}) error {
	return scanJSON(src, s)
}

// Value stores the strategy as a JSON document
func (s ProcessingStrategy) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan reads the strategy from a JSON document
func (s *ProcessingStrategy) Scan(src interface{}) error {
	return scanJSON(src, s)
}

// JSONObject is a free-form JSON document carried alongside a queue
type JSONObject []byte

// MarshalJSON emits the raw document, or null when empty
func (o JSONObject) MarshalJSON() ([]byte, error) {
	if len(o) == 0 {
		return []byte("null"), nil
	}
	return o, nil
}

// UnmarshalJSON keeps a copy of the raw document
func (o *JSONObject) UnmarshalJSON(data []byte) error {
	if o == nil {
		return errors.New("JSONObject: UnmarshalJSON on nil pointer")
	}
	if string(data) == "null" {
		*o = nil
		return nil
	}
	*o = append((*o)[0:0], data...)
	return nil
}

// Value stores the document, NULL when empty
func (o JSONObject) Value() (driver.Value, error) {
	if len(o) == 0 {
		return nil, nil
	}
	return []byte(o), nil
}

// Scan reads the document as stored
func (o *JSONObject) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*o = nil
	case []byte:
		*o = append(JSONObject(nil), v...)
	case string:
		*o = JSONObject(v)
	default:
		return fmt.Errorf("unsupported type %T for JSONObject", src)
	}
	return nil
}

func scanJSON(src interface{}, dest interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported type %T for JSON column", src)
	}
}

// IsValidSubmitStrategy checks if submit strategy type is valid
func IsValidSubmitStrategy(t string) bool {
	valid := []string{SubmitBurst, SubmitBatch, SubmitSequentialByOriginator, SubmitSequentialByTenant, SubmitSequential}
	for _, v := range valid {
		if t == v {
			return true
		}
	}
	return false
}

// IsValidProcessingStrategy checks if processing strategy type is valid
func IsValidProcessingStrategy(t string) bool {
	valid := []string{
		ProcessingSkipAllFailures,
		ProcessingSkipAllFailuresAndTimedOut,
		ProcessingRetryAll,
		ProcessingRetryFailed,
		ProcessingRetryTimedOut,
		ProcessingRetryFailedAndTimedOut,
	}
	for _, v := range valid {
		if t == v {
			return true
		}
	}
	return false
}

// Validate checks the queue configuration. Ownership fields are not checked
// here since they are assigned by the registry.
func (q *Queue) Validate() error {
	if strings.TrimSpace(q.Name) == "" {
		return fmt.Errorf("%w: queue name is required", ErrInvalidArgument)
	}
	if utf8.RuneCountInString(q.Name) > MaxQueueNameLength {
		return fmt.Errorf("%w: queue name must not exceed %d characters", ErrInvalidArgument, MaxQueueNameLength)
	}
	if strings.IndexFunc(q.Name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: queue name must not contain whitespace", ErrInvalidArgument)
	}
	if strings.TrimSpace(q.Topic) == "" {
		return fmt.Errorf("%w: queue topic is required", ErrInvalidArgument)
	}
	if q.PollInterval < 1 {
		return fmt.Errorf("%w: poll interval must be at least 1", ErrInvalidArgument)
	}
	if q.Partitions < 1 {
		return fmt.Errorf("%w: partitions must be at least 1", ErrInvalidArgument)
	}
	if q.PackProcessingTimeout < 1 {
		return fmt.Errorf("%w: pack processing timeout must be at least 1", ErrInvalidArgument)
	}

	if !IsValidSubmitStrategy(q.SubmitStrategy.Type) {
		return fmt.Errorf("%w: invalid submit strategy type: %q", ErrInvalidArgument, q.SubmitStrategy.Type)
	}
	if q.SubmitStrategy.Type == SubmitBatch && q.SubmitStrategy.BatchSize < 1 {
		return fmt.Errorf("%w: batch submit strategy requires batch size of at least 1", ErrInvalidArgument)
	}

	ps := q.ProcessingStrategy
	if !IsValidProcessingStrategy(ps.Type) {
		return fmt.Errorf("%w: invalid processing strategy type: %q", ErrInvalidArgument, ps.Type)
	}
	if ps.Retries < 0 {
		return fmt.Errorf("%w: retries must not be negative", ErrInvalidArgument)
	}
	if ps.FailurePercentage < 0 || ps.FailurePercentage > 100 {
		return fmt.Errorf("%w: failure percentage must be between 0 and 100", ErrInvalidArgument)
	}
	if ps.PauseBetweenRetries < 0 {
		return fmt.Errorf("%w: pause between retries must not be negative", ErrInvalidArgument)
	}
	if ps.MaxPauseBetweenRetries < ps.PauseBetweenRetries {
		return fmt.Errorf("%w: max pause between retries must not be less than pause between retries", ErrInvalidArgument)
	}

	if len(q.AdditionalInfo) > 0 && !json.Valid(q.AdditionalInfo) {
		return fmt.Errorf("%w: additional info must be valid JSON", ErrInvalidArgument)
	}
	return nil
}

// Clone returns a deep copy of the queue
func (q *Queue) Clone() *Queue {
	if q == nil {
		return nil
	}
	c := *q
	if q.AdditionalInfo != nil {
		c.AdditionalInfo = append(JSONObject(nil), q.AdditionalInfo...)
	}
	return &c
}

// QueueRepository defines operations for queue definition storage.
// FindByID is not tenant scoped so callers can tell a foreign entity from
// a missing one.
type QueueRepository interface {
	Save(ctx context.Context, queue *Queue) (*Queue, error)
	FindByID(ctx context.Context, id string) (*Queue, error)
	FindNamesByTenantAndServiceType(ctx context.Context, tenantID, serviceType string) ([]string, error)
	FindPage(ctx context.Context, tenantID, serviceType string, link *PageLink) (*QueuePage, error)
	Delete(ctx context.Context, tenantID, id string) error
}

// QueueUsecase defines the registry operations exposed to callers.
// SaveQueue returns nil without error when the service type is not managed
// by the registry.
type QueueUsecase interface {
	ListQueueNames(ctx context.Context, principal *Principal, serviceType string) ([]string, error)
	ListQueues(ctx context.Context, principal *Principal, serviceType string, link *PageLink) (*QueuePage, error)
	GetQueue(ctx context.Context, principal *Principal, queueID string) (*Queue, error)
	SaveQueue(ctx context.Context, principal *Principal, queue *Queue, serviceType string) (*Queue, error)
	DeleteQueue(ctx context.Context, principal *Principal, queueID string) error
}
