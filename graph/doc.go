// Package graph holds the live nodes of a deployed flow and resolves
// destination ids for the router.
//
// A Registry maps node ids to router.Node values and is the router's Graph
// collaborator. FunctionNode adapts a Handler into a node that can both
// receive messages and emit them back through the router as a source.
// Deploy turns a config.FlowConfig into registered nodes and routing entries:
//
//	registry := graph.NewRegistry()
//	deployment, err := graph.Deploy(ctx, cfg.Flow, registry, r, graph.DefaultFactory(logger))
//	if err != nil {
//	    return err
//	}
//	defer deployment.Teardown()
//
// Node types are looked up by name in a process-wide table. The built-in
// types are "passthrough", "sink" and "tag"; RegisterType adds more.
package graph
