// Package registry defines the domain types and gateway contract for the
// remote knowledge-corpus registry. Corpora live under canonical resource
// names of the form projects/<project>/locations/<location>/ragCorpora/<id>;
// documents live beneath a corpus under .../ragFiles/<id>.
//
// The canonical Service interface lives here to keep the domain contract
// central. Implementation packages (the in-memory registry below, the Vertex
// AI RAG Engine gateway in the vertex sub-package, future backends) provide
// interchangeable transports; callers should depend on Service rather than
// concrete types so they can substitute alternatives in tests or production.
//
// Ingestion, chunking and embedding policy are owned by the remote registry.
// Implementations construct requests and report outcomes; they never
// re-implement retrieval semantics client-side.
package registry
