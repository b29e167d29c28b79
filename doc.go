// Package mcpws implements a small tool and resource protocol over
// WebSocket, in the style of the Model Context Protocol.
//
// Every message is a JSON envelope. A request carries an id, a method and
// params; its response echoes the id and carries either a result or an
// error. A connection may have many requests in flight at once and
// responses may arrive in any order.
//
// # Server
//
// A Server owns a registry of tools and resources and answers initialize,
// tools/list, tools/call, resources/list and resources/read:
//
//	srv := mcpws.NewServer(mcpws.WithLogger(slog.Default()))
//
//	err := srv.AddTool(
//	    mcpws.NewTool("add", "Add two numbers",
//	        mcpws.SimpleSchema(map[string]string{"a": "float64", "b": "float64"})),
//	    func(ctx context.Context, req *mcpws.CallToolRequest) (*mcpws.CallToolResult, error) {
//	        args, err := mcpws.ParseArguments(req)
//	        if err != nil {
//	            return nil, err
//	        }
//	        a, _ := args["a"].(float64)
//	        b, _ := args["b"].(float64)
//	        return mcpws.JSONResult(map[string]any{"result": a + b})
//	    },
//	)
//
//	log.Fatal(srv.ListenAndServe(ctx, "localhost:8765"))
//
// Server also implements http.Handler, so it can be mounted on an existing
// mux.
//
// # Client
//
// A Client dials a server and issues requests. All methods are safe for
// concurrent use:
//
//	err := mcpws.WithClient(ctx, func(c mcpws.Client) error {
//	    if _, err := c.Initialize(ctx); err != nil {
//	        return err
//	    }
//	    result, err := c.CallTool(ctx, "add", map[string]any{"a": 1, "b": 2})
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(result.Text())
//	    return nil
//	},
//	    mcpws.WithURL("ws://localhost:8765"),
//	    mcpws.WithRequestTimeout(10*time.Second),
//	)
//
// # Error Handling
//
// A server-side failure reaches the caller as *ResponseError carrying the
// error code and message. Local failures use sentinel errors:
//
//	_, err := c.CallTool(ctx, "calculator", args)
//	if respErr, ok := errors.AsType[*mcpws.ResponseError](err); ok {
//	    log.Printf("server rejected call: %d %s", respErr.Code, respErr.Message)
//	}
//	if errors.Is(err, mcpws.ErrRequestTimeout) {
//	    log.Print("no response in time")
//	}
package mcpws
