package storage

import (
	"container/list"
	"os"
	"sync"
)

// filePool is a bounded cache of read-only file handles for non-active
// segments, keyed by segment file id. An id's position in the eviction
// queue is refreshed on every put, so the least-recently-put id is evicted
// first once the pool exceeds its capacity; get always removes the handle
// it returns, so a caller that reads and then calls put is effectively
// refreshing that id's recency.
type filePool struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	elems    map[uint32]*list.Element
	files    map[uint32][]*os.File
}

type poolEntry struct {
	fileID uint32
}

func newFilePool(capacity int) *filePool {
	return &filePool{
		capacity: capacity,
		order:    list.New(),
		elems:    make(map[uint32]*list.Element),
		files:    make(map[uint32][]*os.File),
	}
}

// get removes and returns a cached handle for fileID, if one is pooled.
func (p *filePool) get(fileID uint32) (*os.File, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	handles, ok := p.files[fileID]
	if !ok || len(handles) == 0 {
		return nil, false
	}

	f := handles[len(handles)-1]
	handles = handles[:len(handles)-1]

	if len(handles) == 0 {
		delete(p.files, fileID)
		if elem, ok := p.elems[fileID]; ok {
			p.order.Remove(elem)
			delete(p.elems, fileID)
		}
	} else {
		p.files[fileID] = handles
	}

	return f, true
}

// put returns a handle to the pool, moving fileID to the back of the LRU
// order (whether or not it was already pooled) and evicting the
// least-recently-inserted id's handle if the pool is now over capacity.
func (p *filePool) put(fileID uint32, f *os.File) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.files[fileID] = append(p.files[fileID], f)
	if elem, ok := p.elems[fileID]; ok {
		p.order.MoveToBack(elem)
	} else {
		p.elems[fileID] = p.order.PushBack(poolEntry{fileID: fileID})
	}

	if p.size() > p.capacity {
		p.removeLRU()
	}
}

func (p *filePool) size() int {
	n := 0
	for _, handles := range p.files {
		n += len(handles)
	}
	return n
}

func (p *filePool) removeLRU() {
	front := p.order.Front()
	if front == nil {
		return
	}

	entry := front.Value.(poolEntry)
	handles, ok := p.files[entry.fileID]
	if !ok || len(handles) == 0 {
		p.order.Remove(front)
		delete(p.elems, entry.fileID)
		return
	}

	f := handles[0]
	handles = handles[1:]
	f.Close()

	if len(handles) == 0 {
		delete(p.files, entry.fileID)
		p.order.Remove(front)
		delete(p.elems, entry.fileID)
	} else {
		p.files[entry.fileID] = handles
	}
}

// closeAll closes every pooled handle. Used when the store shuts down.
func (p *filePool) closeAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, handles := range p.files {
		for _, f := range handles {
			f.Close()
		}
	}
	p.files = make(map[uint32][]*os.File)
	p.elems = make(map[uint32]*list.Element)
	p.order.Init()
}
