package knowledge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-openapi/swag"
)

// Hotel is a flat hotel profile. Name is the canonical display name; records
// are addressed by its normalized form.
type Hotel struct {
	Name         string   `json:"name"`
	Owner        string   `json:"owner,omitempty"`
	TotalRooms   int      `json:"total_rooms,omitempty"`
	BlockedRooms int      `json:"blocked_rooms,omitempty"`
	Amenities    []string `json:"amenities,omitempty"`
	Address      string   `json:"address,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// PublicCapacity is the number of bookable rooms: total minus the rooms
// blocked for special guests.
func (h Hotel) PublicCapacity() int {
	return h.TotalRooms - h.BlockedRooms
}

// Profile renders the record as the profile block used in agent instructions.
func (h Hotel) Profile() string {
	amenities := "(none specified)"
	if len(h.Amenities) > 0 {
		amenities = strings.Join(h.Amenities, ", ")
	}
	return fmt.Sprintf(
		"Hotel name: %s\nOwner: %s\nTotal rooms: %d\nRooms blocked (special guests): %d\nPublic capacity (bookable): %d\nAmenities: %s\nAddress: %s\nPhone: %s\nNotes: %s",
		h.Name, h.Owner, h.TotalRooms, h.BlockedRooms, h.PublicCapacity(), amenities, h.Address, h.Phone, h.Notes,
	)
}

// HotelUpdate is a partial hotel record for Upsert. Name is required; nil
// fields leave the existing value untouched.
type HotelUpdate struct {
	Name         string   `json:"name"`
	Owner        *string  `json:"owner,omitempty"`
	TotalRooms   *int     `json:"total_rooms,omitempty"`
	BlockedRooms *int     `json:"blocked_rooms,omitempty"`
	Amenities    []string `json:"amenities,omitempty"`
	Address      *string  `json:"address,omitempty"`
	Phone        *string  `json:"phone,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
}

// HotelDirectory is an in-memory hotel registry keyed by normalized name.
type HotelDirectory struct {
	hotels map[string]Hotel
}

// NewHotelDirectory creates a registry holding the given hotels.
func NewHotelDirectory(hotels ...Hotel) *HotelDirectory {
	dir := &HotelDirectory{hotels: make(map[string]Hotel, len(hotels))}
	for _, h := range hotels {
		dir.Put(h.Name, h)
	}
	return dir
}

var _ Store[Hotel] = (*HotelDirectory)(nil)

// Get returns the hotel registered under the normalized key.
func (d *HotelDirectory) Get(name string) (Hotel, bool) {
	h, ok := d.hotels[NormalizeKey(name)]
	return h, ok
}

// Put adds or replaces a hotel record.
func (d *HotelDirectory) Put(name string, h Hotel) {
	d.hotels[NormalizeKey(name)] = h
}

// List returns all hotels sorted by normalized key.
func (d *HotelDirectory) List() []Hotel {
	keys := make([]string, 0, len(d.hotels))
	for k := range d.hotels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Hotel, 0, len(keys))
	for _, k := range keys {
		out = append(out, d.hotels[k])
	}
	return out
}

// Names returns the display names of all hotels, sorted by normalized key so
// downstream ranking has a deterministic tie-break.
func (d *HotelDirectory) Names() []string {
	hotels := d.List()
	names := make([]string, len(hotels))
	for i, h := range hotels {
		names[i] = h.Name
	}
	return names
}

// Lookup resolves a hotel by (normalized) name. On a miss the error carries
// the original, non-normalized name for display.
func (d *HotelDirectory) Lookup(name string) (Hotel, error) {
	h, ok := d.Get(name)
	if !ok {
		return Hotel{}, &NotFoundError{Kind: "hotel", Key: name}
	}
	return h, nil
}

// Upsert merges the provided fields into any existing record at the
// normalized key, creating the record when absent. The canonical display name
// is always overwritten with the caller-supplied value. Room counts must be
// non-negative; this boundary is the only place that validates them.
func (d *HotelDirectory) Upsert(update HotelUpdate) (Hotel, error) {
	if strings.TrimSpace(update.Name) == "" {
		return Hotel{}, fmt.Errorf("hotel name is required")
	}
	if update.TotalRooms != nil && *update.TotalRooms < 0 {
		return Hotel{}, fmt.Errorf("total_rooms must be non-negative, got %d", *update.TotalRooms)
	}
	if update.BlockedRooms != nil && *update.BlockedRooms < 0 {
		return Hotel{}, fmt.Errorf("blocked_rooms must be non-negative, got %d", *update.BlockedRooms)
	}

	key := NormalizeKey(update.Name)
	existing := d.hotels[key]

	existing.Name = update.Name
	if update.Owner != nil {
		existing.Owner = swag.StringValue(update.Owner)
	}
	if update.TotalRooms != nil {
		existing.TotalRooms = swag.IntValue(update.TotalRooms)
	}
	if update.BlockedRooms != nil {
		existing.BlockedRooms = swag.IntValue(update.BlockedRooms)
	}
	if update.Amenities != nil {
		existing.Amenities = update.Amenities
	}
	if update.Address != nil {
		existing.Address = swag.StringValue(update.Address)
	}
	if update.Phone != nil {
		existing.Phone = swag.StringValue(update.Phone)
	}
	if update.Notes != nil {
		existing.Notes = swag.StringValue(update.Notes)
	}

	d.hotels[key] = existing
	return existing, nil
}

// DefaultHotels returns the demo hotel registry.
func DefaultHotels() *HotelDirectory {
	return NewHotelDirectory(
		Hotel{
			Name:         "Hotel Sannata",
			Owner:        "Mr. Ratan Lal",
			TotalRooms:   200,
			BlockedRooms: 20,
			Amenities:    []string{"Free Wi-Fi", "Breakfast", "Gym", "Pool"},
			Address:      "Main Bazar, Karachi",
			Phone:        "+92-300-1234567",
			Notes:        "20 rooms reserved for special guests.",
		},
		Hotel{
			Name:         "Hotel Blue Bay",
			Owner:        "Ayesha Khan",
			TotalRooms:   120,
			BlockedRooms: 10,
			Amenities:    []string{"Sea View", "Wi-Fi", "Restaurant"},
			Address:      "Clifton, Karachi",
			Phone:        "+92-311-1111111",
			Notes:        "Popular for sea-facing rooms.",
		},
		Hotel{
			Name:         "Hotel Grand Palace",
			Owner:        "Mr. Ahmed Ali",
			TotalRooms:   300,
			BlockedRooms: 25,
			Amenities:    []string{"Wi-Fi", "Conference Hall", "Swimming Pool", "Spa"},
			Address:      "Mall Road, Lahore",
			Phone:        "+92-321-2222222",
			Notes:        "Luxury hotel in the heart of the city.",
		},
	)
}
