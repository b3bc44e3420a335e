package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"

	"github.com/jhoicas/fiscal-ingest-api/pkg/config"
)

var errNoIPv4 = errors.New("sin dirección IPv4")

// publicResolver DNS externo para contenedores cuyo resolver solo devuelve AAAA.
var publicResolver = &net.Resolver{
	PreferGo: true,
	Dial: func(ctx context.Context, _, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "udp", "8.8.8.8:53")
	},
}

// NewPool crea el pool de PostgreSQL. Con DATABASE_URL se usa tal cual; si no, se arma
// el DSN desde DB_HOST/DB_PORT/etc. En ambos casos se intenta conectar por IPv4.
func NewPool(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	dsn := cfg.ConnectionString()
	if cfg.DatabaseURL != "" {
		dsn = withIPv4Host(ctx, cfg.DatabaseURL)
	} else if ip, err := lookupIPv4(ctx, cfg.Host); err == nil {
		withIP := cfg
		withIP.Host = ip
		dsn = withIP.DSN()
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	poolConfig.ConnConfig.DialFunc = dialIPv4

	// la importación es secuencial; pocas conexiones bastan
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	// NUMERIC -> shopspring/decimal (desvío de cuotas candidatas)
	poolConfig.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return pool, nil
}

// dialIPv4 fuerza tcp4 cuando el host tiene IPv4; si no, dial normal.
func dialIPv4(ctx context.Context, network, addr string) (net.Conn, error) {
	var d net.Dialer
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	ip, err := lookupIPv4(ctx, host)
	if err != nil {
		return d.DialContext(ctx, network, addr)
	}
	return d.DialContext(ctx, "tcp4", net.JoinHostPort(ip, port))
}

// lookupIPv4 prueba el resolver del sistema y luego el público.
func lookupIPv4(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() != nil {
			return host, nil
		}
		return "", errNoIPv4
	}
	for _, r := range []*net.Resolver{net.DefaultResolver, publicResolver} {
		ips, err := r.LookupIP(ctx, "ip4", host)
		if err != nil {
			continue
		}
		for _, ip := range ips {
			if ip.To4() != nil {
				return ip.String(), nil
			}
		}
	}
	return "", errNoIPv4
}

// withIPv4Host reemplaza el hostname de la URL por su IPv4 si existe.
func withIPv4Host(ctx context.Context, databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return databaseURL
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	ip, err := lookupIPv4(ctx, u.Hostname())
	if err != nil {
		return databaseURL
	}
	u.Host = net.JoinHostPort(ip, port)
	return u.String()
}
