package common

// InitDataHeaderName is the HTTP header carrying Telegram WebApp init data
// on requests to the admin API.
const InitDataHeaderName = "X-Telegram-Init-Data"
