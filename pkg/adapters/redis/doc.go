// Package redis stores command permissions in Redis so several dispatchers can share them.
package redis
