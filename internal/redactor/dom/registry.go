package dom

import (
	"sync"

	"golang.org/x/net/html"
)

// Registry - индекс элементов дерева по стабильному атрибуту id.
// Отложенные операции хранят только id и получают узел заново через Resolve.
type Registry struct {
	mu    sync.RWMutex
	root  *html.Node
	nodes map[string]*html.Node
}

func NewRegistry(root *html.Node) *Registry {
	r := &Registry{}
	r.Index(root)
	return r
}

// Index перестраивает индекс по дереву root.
func (r *Registry) Index(root *html.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.root = root
	r.nodes = make(map[string]*html.Node)
	IterNodes(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if id := GetAttr(n, "id"); id != "" {
				if _, ok := r.nodes[id]; !ok {
					r.nodes[id] = n
				}
			}
		}
		return false
	})
}

// Root - дерево, по которому построен индекс.
func (r *Registry) Root() *html.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.root
}

// Resolve возвращает живой элемент по id. Если запись устарела (элемент отсоединен
// или у него сменился id), индекс перестраивается один раз.
func (r *Registry) Resolve(id string) (*html.Node, bool) {
	if id == "" {
		return nil, false
	}
	r.mu.RLock()
	n, ok := r.nodes[id]
	root := r.root
	r.mu.RUnlock()

	if ok && r.alive(root, n, id) {
		return n, true
	}

	r.Index(root)

	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok = r.nodes[id]
	return n, ok
}

func (r *Registry) alive(root, n *html.Node, id string) bool {
	return n != nil && GetAttr(n, "id") == id && Contains(root, n)
}

// Register проставляет элементу id и добавляет его в индекс.
func (r *Registry) Register(id string, n *html.Node) {
	SetAttr(n, "id", id)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[id] = n
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.nodes, id)
}

// IDs - идентификаторы всех проиндексированных элементов.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.nodes))
	for id := range r.nodes {
		ids = append(ids, id)
	}
	return ids
}
