package config

// DEFAULT_CLIENT_YML is written to ~/.kontakt.yaml the first time the CLI runs
const DEFAULT_CLIENT_YML = `api:
  baseUrl: "https://close-to-you-backend.onrender.com"
  timeoutSeconds: 0

cache:
  passPhrase: <A pass phrase used to encrypt the local contacts cache>
  dir:

sync:
  refreshEvery: "5m"
  timeZone: "America/Toronto"
  refreshOnResume: true
  searchDebounceMillis: 300

google:
  applicationCredentials:
  storage:
    bucket:
    prefix:
`

// DEV_CLIENT_YML is used with --dev. It points the CLI at 'kontakt devserver'.
const DEV_CLIENT_YML = `api:
  baseUrl: "http://localhost:3000"

cache:
  passPhrase: passphrase
  dir: "./dev"

sync:
  refreshEvery: "30s"
  timeZone: "America/Toronto"
  refreshOnResume: true
  searchDebounceMillis: 300

devServer:
  port: 3000
  secret: dev-secret
`
