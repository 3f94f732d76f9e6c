/*
Package plangraph walks typed plan graphs breadth-first and records a full
snapshot of the graph after every visit.

# Concept

A plan is a directed graph of components. Besides a single root variant there
are three component kinds (component_a, component_b and component_c), each with
an id, a name, a state and a typed value. Edges carry a transition label.

A walk starts at the root, dequeues nodes in breadth-first order, marks each
one visited and appends a JSON snapshot of the whole graph to the run's log.
It stops when a halt rule matches the visited node (by default: component_a in
state_2) or when every reachable node has been visited. Nodes are visited at
most once, so cycles terminate.

# Usage

Plans can be read from a YAML/JSON file, from a directory of documents, or
built in Go with pkg/dsl.

	eng, err := plangraph.New("./examples/reference-plan/plan.yaml")
	if err != nil {
		log.Fatal(err)
	}

	run, err := eng.Walk(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(run.Status, run.Log.Len()) // halted 4

Runs can be persisted with WithStore using any adapter under pkg/adapters
(memory, file, redis, badger, sqlite, postgres).
*/
package plangraph
