package mysql

// -----------------------------------------------------------------------------
// TRIPS
// -----------------------------------------------------------------------------

const insertTripSQL = `
INSERT INTO trips
  (id, user_id, origin_city, destination_city, depart_date, return_date, travelers,
   cabin_class, origin_airport, destination_airport, destination_lat, destination_lon,
   flight_tables, itinerary_id, check_in, check_out)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const getTripSQL = `
SELECT
  id, user_id, origin_city, destination_city, depart_date, return_date, travelers,
  cabin_class, origin_airport, destination_airport, destination_lat, destination_lon,
  flight_tables, itinerary_id, check_in, check_out, created_at, updated_at
FROM trips
WHERE id = ?
`

// Update statements are assembled from tripColumns; only whitelisted columns are ever written.
const updateTripPrefix = "UPDATE trips SET "

const updateTripSuffix = ", updated_at = CURRENT_TIMESTAMP WHERE id = ?"

// MySQL reports zero affected rows when nothing changed, so existence is checked separately.
const tripExistsSQL = `SELECT 1 FROM trips WHERE id = ?`

// -----------------------------------------------------------------------------
// USERS
// -----------------------------------------------------------------------------

const insertUserSQL = `
INSERT INTO users (email, name, password_hash)
VALUES (?, ?, ?)
`

const getUserByEmailSQL = `
SELECT id, email, name, password_hash, created_at
FROM users
WHERE email = ?
`

const errDuplicateEntry = 1062
