/*
Package lattice is a small client-side state container for a posts and comments
resource, with a development backend to talk to.

The state is a Snapshot of two independent slices, posts and comments. Each slice
holds the last fetched items and the last error. Every change goes through a single
Store.Dispatch entry point: plain Actions are reduced synchronously by pure reducers,
while Thunks (the asynchronous action creators) run in the background and dispatch
exactly one Action when their request settles.

# Usage

	client, err := lattice.New(lattice.WithOrigin("http://localhost:5000"))
	if err != nil {
		log.Fatal(err)
	}

	client.Subscribe(func(ctx context.Context, prev, next *domain.Snapshot) {
		fmt.Println(len(next.Posts.Items), "posts")
	})

	_ = client.FetchPosts(ctx)
	client.Wait()

# Layout

  - pkg/domain: snapshot, actions, reducers and the entity types.
  - pkg/actions: the GetPosts, GetComments and PostComment creators.
  - pkg/ports: the Fetcher transport and the backend storage ports.
  - pkg/adapters: HTTP client and server, memory and Redis storage.
  - internal/runtime: the Store.

Build with -tags debug to point the creators at http://localhost:5000 instead of
the same origin.
*/
package lattice
