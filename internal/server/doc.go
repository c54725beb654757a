// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server is an in-memory stand-in for the DataCoPilot research
// service, used by the serve-dev command and by tests.
//
// Endpoints:
//   - POST   /signup                 - Register a user
//   - POST   /login                  - Check credentials
//   - POST   /chat                   - Answer a message, creating or extending a thread
//   - GET    /history/{username}     - List a user's threads
//   - DELETE /delete_chat/{chat_id}  - Delete a thread
//   - GET    /health                 - Health check
//
// Errors use the {"detail": "..."} convention; request validation errors
// carry a list in detail instead.
package server
