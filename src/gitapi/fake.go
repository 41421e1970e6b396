package gitapi

import "context"

// FakeClient records commits and tags for unit tests.
type FakeClient struct {
	Commits []string
	Tags    []string
	Err     error
}

func NewFake() *FakeClient {
	return &FakeClient{}
}

func (f *FakeClient) Commit(ctx context.Context, repoDir, message string) error {
	if f.Err != nil {
		return f.Err
	}
	f.Commits = append(f.Commits, message)
	return nil
}

func (f *FakeClient) Tag(ctx context.Context, repoDir, name, message string) error {
	if f.Err != nil {
		return f.Err
	}
	f.Tags = append(f.Tags, name)
	return nil
}
