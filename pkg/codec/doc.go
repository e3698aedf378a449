/*
Package codec translates between in-memory IP values (net/netip) and the raw
bytes storage writes into BLOB key columns.

Text values and GeoIP record fields (country, city, latitude, longitude,
ISP) cross that boundary as native SQL column types via database/sql and
need no custom encoding — only the IP address byte representation does,
because it doubles as both the lookup key and the thing a unique index is
built on.
*/
package codec
