package aws

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"sharedlists/core"
	"sharedlists/stores/memory"
	"sharedlists/stores/storetest"
)

// mockObjectAPI is an in-memory bucket.
type mockObjectAPI struct {
	objects map[string][]byte
	getErr  error
	putErr  error
}

func newMockObjectAPI() *mockObjectAPI {
	return &mockObjectAPI{objects: make(map[string][]byte)}
}

func (m *mockObjectAPI) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockObjectAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func TestLoad_MissingObject(t *testing.T) {
	p := NewPersisterWithClient(newMockObjectAPI(), "bucket", "snapshot.json")
	data, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if data != nil {
		t.Errorf("Load() = %q, want nil for a missing object", data)
	}
}

func TestLoad_OtherErrorsSurface(t *testing.T) {
	api := newMockObjectAPI()
	api.getErr = errors.New("access denied by bucket policy")
	p := NewPersisterWithClient(api, "bucket", "snapshot.json")
	if _, err := p.Load(context.Background()); err == nil {
		t.Fatal("Load() swallowed a non-NoSuchKey error")
	}
}

func TestSaveThenLoad(t *testing.T) {
	ctx := context.Background()
	api := newMockObjectAPI()
	p := NewPersisterWithClient(api, "bucket", "snapshot.json")

	if err := p.Save(ctx, []byte(`{"lists":[]}`)); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if _, ok := api.objects["bucket/snapshot.json"]; !ok {
		t.Fatal("Save() did not write bucket/snapshot.json")
	}
	data, err := p.Load(ctx)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if string(data) != `{"lists":[]}` {
		t.Errorf("Load() = %q", data)
	}
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) core.Store {
		p := NewPersisterWithClient(newMockObjectAPI(), "bucket", "snapshot.json")
		s, err := memory.NewPersistentStore(context.Background(), p)
		if err != nil {
			t.Fatalf("NewPersistentStore() failed: %v", err)
		}
		return s
	})
}

func TestStore_PutFailureRejectsWrite(t *testing.T) {
	ctx := context.Background()
	api := newMockObjectAPI()
	s, err := memory.NewPersistentStore(ctx, NewPersisterWithClient(api, "bucket", "snapshot.json"))
	if err != nil {
		t.Fatalf("NewPersistentStore() failed: %v", err)
	}

	api.putErr = errors.New("throttled")
	list := &core.List{Title: "Never stored", OwnerID: "alice"}
	owner := &core.Grant{UserID: "alice", Permission: core.PermissionOwner}
	if err := s.InsertList(ctx, list, owner); err == nil {
		t.Fatal("InsertList() succeeded although the snapshot upload failed")
	}
	if lists, _ := s.ListsForUser(ctx, "alice"); len(lists) != 0 {
		t.Errorf("alice sees %d lists after a failed upload", len(lists))
	}
}
