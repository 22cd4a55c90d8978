package content

import (
	"time"

	"github.com/pkg/errors"
)

// OperationType put or delete
type OperationType string

const (
	OperationTypePut    OperationType = "PUT"
	OperationTypeDelete OperationType = "DELETE"
)

type (
	// Operation a single change inside a commit. Put creates or replaces the
	// content at Key, Delete removes it and fails the commit if Key is missing.
	Operation struct {
		Type    OperationType
		Key     Key
		Content Content
	}
	// Operations commit body, applied atomically
	Operations struct {
		CommitMeta CommitMeta  `json:"commitMeta"`
		Operations []Operation `json:"operations"`
	}
	// CommitMeta provenance attached to a commit
	CommitMeta struct {
		Hash        string            `json:"hash,omitempty"`
		Committer   string            `json:"committer,omitempty"`
		Author      string            `json:"author"`
		AuthorTime  time.Time         `json:"authorTime"`
		CommitTime  *time.Time        `json:"commitTime,omitempty"`
		Message     string            `json:"message"`
		SignedOffBy string            `json:"signedOffBy,omitempty"`
		Properties  map[string]string `json:"properties"`
	}
	// CommitResponse result of a successful commit
	CommitResponse struct {
		TargetBranch  Reference      `json:"targetBranch"`
		AddedContents []AddedContent `json:"addedContents,omitempty"`
	}
	// AddedContent content id assigned by the store to a newly created key
	AddedContent struct {
		Key       Key    `json:"key"`
		ContentID string `json:"contentId"`
	}
	// Entry a key and its content type as returned by a listing
	Entry struct {
		Name      Key    `json:"name"`
		Type      Type   `json:"type"`
		ContentID string `json:"contentId,omitempty"`
	}
	// LogEntry one commit of the history
	LogEntry struct {
		CommitMeta       CommitMeta  `json:"commitMeta"`
		ParentCommitHash string      `json:"parentCommitHash,omitempty"`
		Operations       []Operation `json:"operations,omitempty"`
	}
)

// Put upsert operation
func Put(key Key, c Content) Operation {
	return Operation{Type: OperationTypePut, Key: key, Content: c}
}

// Delete delete operation
func Delete(key Key) Operation {
	return Operation{Type: OperationTypeDelete, Key: key}
}

// NewCommitMeta commit metadata stamped with a real author time
func NewCommitMeta(author, message string, now time.Time) CommitMeta {
	return CommitMeta{
		Author:     author,
		AuthorTime: now.UTC(),
		Message:    message,
		Properties: map[string]string{},
	}
}

// ContentID of the added content for key, if any
func (r CommitResponse) ContentID(key Key) string {
	for _, added := range r.AddedContents {
		if added.Key.Equal(key) {
			return added.ContentID
		}
	}
	return ""
}

// ------------------------------------------------------------------------------------------------
// ~ Encoding
// ------------------------------------------------------------------------------------------------

type operationJSON struct {
	Type    OperationType `json:"type"`
	Key     Key           `json:"key"`
	Content *Wire         `json:"content,omitempty"`
}

func (o Operation) MarshalJSON() ([]byte, error) {
	v := operationJSON{Type: o.Type, Key: o.Key}
	switch o.Type {
	case OperationTypePut:
		if o.Content == nil {
			return nil, errors.Errorf("put %s without content", o.Key)
		}
		v.Content = &Wire{Content: o.Content}
	case OperationTypeDelete:
	default:
		return nil, errors.Errorf("unknown operation type %q", o.Type)
	}
	return json.Marshal(v)
}

func (o *Operation) UnmarshalJSON(data []byte) error {
	var v operationJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Type = v.Type
	o.Key = v.Key
	o.Content = nil
	if v.Content != nil {
		o.Content = v.Content.Content
	}
	return nil
}
