/*
Package dsl provides a fluent Go builder for plan graphs.

It is the programmatic counterpart of plan files: nodes are declared by key,
typed through Root/A/B/C, and wired with Go or Transition. Nodes keep the
order they are added in, which fixes their handles and so the walk order.

Example usage:

	b := dsl.New("reference")

	b.Add("root").Root().
		Transition("Root to A1", "a1").
		Transition("Root to B1", "b1")
	b.Add("a1").A(1, domain.State1, 1).Go("a2")
	b.Add("a2").A(2, domain.State2, 2)
	b.Add("b1").B(1, domain.State1, "first")

	loader, err := b.Build()
	// ... pass loader to plangraph.New("", plangraph.WithLoader(loader))
*/
package dsl
