// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the DataCoPilot research service.
//
// The service exposes five JSON endpoints:
//
//	POST   /login                 {username, password}
//	POST   /signup                {username, password}
//	GET    /history/{username}    -> [{id, title, question, answer}]
//	POST   /chat                  {username, message, chat_id, model} -> {response, chat_id}
//	DELETE /delete_chat/{chat_id}
//
// Error bodies may carry a "detail" string, exposed through *Error. Success
// bodies are decoded into explicit types; a body missing a required field is
// reported as ErrMalformedResponse instead of being passed on half-empty.
//
// The client never retries. Requests and responses are logged without bodies
// or credentials, and an optional Recorder receives one CallRecord per call.
//
// # Usage
//
//	client := api.NewClient("http://127.0.0.1:8000").WithLogger(logger)
//	if err := client.Login(ctx, api.Credentials{Username: "alice", Password: "pw1"}); err != nil {
//	    fmt.Println(api.DetailOf(err))
//	}
package api
