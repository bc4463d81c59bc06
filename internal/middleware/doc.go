// Package middleware 提供了 HTTP 請求處理的中間件。
//
// 目前只有 JWT 身份驗證：一般請求從 Authorization 頭取 token，
// WebSocket 升級請求允許改用 token query 參數。
package middleware
