// Package config handles configuration loading for agent-chat.
//
// # Overview
//
// Configuration is a single value built once at startup from three layers,
// highest priority first:
//
//  1. Environment variables (when set and non-empty)
//  2. The YAML configuration file, after ${VAR} expansion
//  3. Hardcoded defaults from Default()
//
// The resulting *Config is passed explicitly to every component; there is
// no package-level configuration global.
//
// # Configuration File
//
// Default location: ./config.yaml, overridden by AGENT_CHAT_CONFIG.
// The file is also the target of `agent-chat setup`, which patches single
// scalar values in place (see internal/setup).
//
// # Environment Files
//
// LoadEnvFiles reads .env.local and .env (in that order) with godotenv
// before the configuration is loaded. Existing process variables win.
//
// Recognized variables:
//
//	SUPABASE_URL          auth.supabase_url      (alias NEXT_PUBLIC_SUPABASE_URL)
//	SUPABASE_ANON_KEY     auth.supabase_anon_key (alias NEXT_PUBLIC_SUPABASE_ANON_KEY)
//	SUPABASE_JWT_SECRET   auth.jwt_secret
//	API_URL               agent.api_url          (alias NEXT_PUBLIC_API_URL)
//	ASSISTANT_ID          agent.assistant_id     (alias NEXT_PUBLIC_ASSISTANT_ID)
//	LANGGRAPH_API_URL     agent.langgraph_api_url
//	LANGSMITH_API_KEY     agent.langsmith_api_key
//	AGENT_CHAT_HTTP_ADDR  server.http_addr
//	AGENT_CHAT_BASE_URL   server.base_url
//
// # Configuration Sections
//
//	auth:
//	  require_auth: true
//	  providers:
//	    google: true
//	    github: true
//	    email_password: false
//
//	agent:
//	  default_api_url: "http://localhost:2024"
//	  default_assistant_id: "agent"
//	  rate_limit:
//	    requests_per_second: 0   # 0 disables limiting
//	    burst: 20
//
//	ui:
//	  app_name: "Agent Chat UI"
//	  colors:
//	    primary: "purple"
//
//	features:
//	  chat_history: true
//
// # Validation
//
// Validate() checks palette colors, button variants, chat limits, logging
// values and required server settings. Backend URLs and keys are not
// validated: a wrong value fails when the backend is called.
//
// # Watching
//
// Watch logs a warning when the configuration or env files change on disk.
// The running process keeps its original configuration until restarted.
package config
