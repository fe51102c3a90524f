package tree

import "github.com/gogpu/compositor/geom"

// UIResourceID identifies a bitmap uploaded by the main thread.
type UIResourceID int

// UIResourceBitmap is the pixel data of a UI resource.
type UIResourceBitmap struct {
	Size   geom.Size
	Opaque bool
	Pixels []byte
}

// UIResourceRequestKind is the operation of a queued request.
type UIResourceRequestKind int

const (
	UIResourceCreate UIResourceRequestKind = iota
	UIResourceDelete
)

// UIResourceRequest is one queued create or delete of a UI resource.
type UIResourceRequest struct {
	Kind   UIResourceRequestKind
	ID     UIResourceID
	Bitmap UIResourceBitmap
}

// UIResourceManager owns the uploaded UI resources.
type UIResourceManager interface {
	CreateUIResource(id UIResourceID, bitmap UIResourceBitmap)
	DeleteUIResource(id UIResourceID)
}

// UIResourceLookup resolves UI resources while emitting quads.
type UIResourceLookup interface {
	ResourceIDForUIResource(id UIResourceID) (uint64, bool)
}

// QueueUIResourceRequests appends requests to the tree's queue.
func (t *LayerTree) QueueUIResourceRequests(reqs []UIResourceRequest) {
	t.uiRequests = append(t.uiRequests, reqs...)
}

// ProcessUIResourceRequestQueue applies and clears the queued requests.
func (t *LayerTree) ProcessUIResourceRequestQueue(m UIResourceManager) {
	reqs := t.uiRequests
	t.uiRequests = nil
	for _, r := range reqs {
		switch r.Kind {
		case UIResourceCreate:
			m.CreateUIResource(r.ID, r.Bitmap)
		case UIResourceDelete:
			m.DeleteUIResource(r.ID)
		}
	}
	// Resource changes can make CanDraw true again.
	if len(reqs) > 0 {
		t.SetNeedsUpdateDrawProperties()
	}
}

// PendingUIResourceRequests returns the number of queued requests.
func (t *LayerTree) PendingUIResourceRequests() int {
	return len(t.uiRequests)
}
