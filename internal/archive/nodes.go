package archive

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/borellim/bandkit/internal/bands"
	"github.com/borellim/bandkit/internal/ndarray"
)

// NodeTypeBands is the node_type value for stored band structures.
const NodeTypeBands = "data.array.bands"

// NodeRecord is a node row joined with its user email and computer
// name. Attrs is the raw attrs_json column.
type NodeRecord struct {
	NodeID      int64           `json:"node_id"`
	UUID        string          `json:"uuid"`
	NodeType    string          `json:"node_type"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
	UserEmail   string          `json:"user_email"`
	Computer    string          `json:"computer,omitempty"`
	Attrs       json.RawMessage `json:"attrs,omitempty"`
	CreatedAt   int64           `json:"created_at"`
	UpdatedAt   int64           `json:"updated_at"`
}

// bandAttrs is the attrs_json payload for band nodes: everything about
// a BandStructure that is not a numeric array.
type bandAttrs struct {
	Units          string          `json:"units"`
	Cell           *[3][3]float64  `json:"cell,omitempty"`
	PBC            [3]bool         `json:"pbc"`
	BravaisLattice string          `json:"bravais_lattice,omitempty"`
	Labels         []bandAttrLabel `json:"labels,omitempty"`
	BandLabels     []string        `json:"band_labels,omitempty"`
	HasWeights     bool            `json:"has_weights,omitempty"`
}

type bandAttrLabel struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

type NodeStore struct {
	db        *sql.DB
	users     *UserStore
	computers *ComputerStore
}

func NewNodeStore(db *sql.DB) *NodeStore {
	return &NodeStore{
		db:        db,
		users:     NewUserStore(db),
		computers: NewComputerStore(db),
	}
}

// SaveBands stores bs as a new node owned by email (DefaultUserEmail
// when empty). A non-empty computerName must match an existing
// computer. The node and its arrays are written in one transaction and
// the node always gets a fresh UUID.
func (s *NodeStore) SaveBands(bs *bands.BandStructure, email, computerName string) (*NodeRecord, error) {
	bundle, err := bs.ToBundle()
	if err != nil {
		return nil, fmt.Errorf("invalid band structure: %w", err)
	}

	if email == "" {
		email = DefaultUserEmail
	}
	user, err := s.users.GetOrCreate(email)
	if err != nil {
		return nil, err
	}

	var computerID sql.NullInt64
	if computerName != "" {
		computer, err := s.computers.ByName(computerName)
		if err != nil {
			return nil, err
		}
		computerID = sql.NullInt64{Int64: computer.ComputerID, Valid: true}
	}

	attrs, err := json.Marshal(buildBandAttrs(bs))
	if err != nil {
		return nil, fmt.Errorf("encode attrs: %w", err)
	}

	type pendingArray struct {
		name     string
		shape    string
		elements int
		blob     []byte
	}
	var arrays []pendingArray
	for _, name := range bundle.Names() {
		a, _ := bundle.Array(name)
		blob, err := encodeArray(a)
		if err != nil {
			return nil, fmt.Errorf("encode array %s: %w", name, err)
		}
		shape, err := json.Marshal(a.Shape())
		if err != nil {
			return nil, fmt.Errorf("encode shape of %s: %w", name, err)
		}
		arrays = append(arrays, pendingArray{name: name, shape: string(shape), elements: a.Len(), blob: blob})
	}

	nodeUUID := uuid.New().String()
	now := time.Now().UnixNano()
	err = retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		res, err := tx.Exec(`
			INSERT INTO nodes (uuid, node_type, label, description, user_id, computer_id, attrs_json, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			nodeUUID, NodeTypeBands, bs.Label(), bs.Description(), user.UserID, computerID, string(attrs), now, now)
		if err != nil {
			return err
		}
		nodeID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for _, a := range arrays {
			_, err := tx.Exec(`
				INSERT INTO node_arrays (node_id, name, shape_json, elements, data_blob, created_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				nodeID, a.name, a.shape, a.elements, a.blob, now)
			if err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, fmt.Errorf("insert node: %w", err)
	}
	return s.Get(nodeUUID)
}

func buildBandAttrs(bs *bands.BandStructure) bandAttrs {
	attrs := bandAttrs{
		Units: bs.Units(),
		PBC:   bs.PBC(),
	}
	if cell, ok := bs.Cell(); ok {
		c := cell
		attrs.Cell = &c
	}
	if bravais, ok := bs.BravaisLattice(); ok {
		attrs.BravaisLattice = bravais
	}
	for _, l := range bs.Labels() {
		attrs.Labels = append(attrs.Labels, bandAttrLabel{Index: l.Index, Name: l.Name})
	}
	attrs.BandLabels = bs.BandLabels()
	_, attrs.HasWeights = bs.Weights()
	return attrs
}

// LoadBands rebuilds the band structure stored under the given node
// UUID.
func (s *NodeStore) LoadBands(id string) (*bands.BandStructure, *NodeRecord, error) {
	rec, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	if rec.NodeType != NodeTypeBands {
		return nil, nil, fmt.Errorf("node %s has type %s, want %s: %w", id, rec.NodeType, NodeTypeBands, ErrWrongNodeType)
	}

	var attrs bandAttrs
	if len(rec.Attrs) > 0 {
		if err := json.Unmarshal(rec.Attrs, &attrs); err != nil {
			return nil, nil, fmt.Errorf("decode attrs of node %s: %w", id, err)
		}
	}
	arrays, err := s.loadArrays(rec.NodeID)
	if err != nil {
		return nil, nil, fmt.Errorf("node %s: %w", id, err)
	}

	bs, err := rebuildBands(attrs, arrays)
	if err != nil {
		return nil, nil, fmt.Errorf("node %s: %w", id, err)
	}
	bs.SetUUID(rec.UUID)
	bs.SetLabel(rec.Label)
	bs.SetDescription(rec.Description)
	return bs, rec, nil
}

func rebuildBands(attrs bandAttrs, arrays map[string]*ndarray.Array) (*bands.BandStructure, error) {
	ks := bands.NewKpointSet()
	if attrs.Cell != nil {
		if err := ks.SetCell(*attrs.Cell); err != nil {
			return nil, err
		}
	}
	ks.SetPBC(attrs.PBC)
	if attrs.BravaisLattice != "" {
		ks.SetBravaisLattice(attrs.BravaisLattice)
	}

	ka, ok := arrays[bands.ArrayKpoints]
	if !ok {
		return nil, fmt.Errorf("missing kpoints array")
	}
	if ka.Rank() != 2 || ka.Dim(1) != 3 {
		return nil, fmt.Errorf("kpoints array has shape %v, want (n, 3)", ka.Shape())
	}
	nk := ka.Dim(0)
	points := make([][3]float64, nk)
	for i := 0; i < nk; i++ {
		points[i] = [3]float64{ka.At(i, 0), ka.At(i, 1), ka.At(i, 2)}
	}
	var weights []float64
	if wa, ok := arrays[bands.ArrayWeights]; ok {
		weights = wa.Data()
	}
	if err := ks.SetPoints(points, weights); err != nil {
		return nil, err
	}
	if len(attrs.Labels) > 0 {
		labels := make([]bands.Label, len(attrs.Labels))
		for i, l := range attrs.Labels {
			labels[i] = bands.Label{Index: l.Index, Name: l.Name}
		}
		if err := ks.SetLabels(labels); err != nil {
			return nil, err
		}
	}

	bs := bands.NewBandStructure()
	bs.SetKpointSet(ks)
	ba, ok := arrays[bands.ArrayBands]
	if !ok {
		return nil, fmt.Errorf("missing bands array")
	}
	if err := bs.SetBands(ba); err != nil {
		return nil, err
	}
	if oa, ok := arrays[bands.ArrayOccupations]; ok {
		if err := bs.SetOccupations(oa); err != nil {
			return nil, err
		}
	}
	if len(attrs.BandLabels) > 0 {
		if err := bs.SetBandLabels(attrs.BandLabels); err != nil {
			return nil, err
		}
	}
	bs.SetUnits(attrs.Units)
	return bs, nil
}

func (s *NodeStore) loadArrays(nodeID int64) (map[string]*ndarray.Array, error) {
	rows, err := s.db.Query(`SELECT name, data_blob FROM node_arrays WHERE node_id = ?`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("query arrays: %w", err)
	}
	defer rows.Close()

	arrays := make(map[string]*ndarray.Array)
	for rows.Next() {
		var name string
		var blob []byte
		if err := rows.Scan(&name, &blob); err != nil {
			return nil, fmt.Errorf("scan array: %w", err)
		}
		a, err := decodeArray(blob)
		if err != nil {
			return nil, fmt.Errorf("array %s: %w", name, err)
		}
		arrays[name] = a
	}
	return arrays, rows.Err()
}

const nodeSelect = `
	SELECT n.node_id, n.uuid, n.node_type, n.label, n.description,
	       u.email, COALESCE(c.name, ''), n.attrs_json, n.created_at, n.updated_at
	FROM nodes n
	JOIN users u ON u.user_id = n.user_id
	LEFT JOIN computers c ON c.computer_id = n.computer_id`

// Get returns the node row with the given UUID.
func (s *NodeStore) Get(id string) (*NodeRecord, error) {
	row := s.db.QueryRow(nodeSelect+` WHERE n.uuid = ?`, id)
	rec, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query node %s: %w", id, err)
	}
	return rec, nil
}

// List returns the newest nodes first, optionally filtered by node
// type. A limit of zero or less means 100.
func (s *NodeStore) List(nodeType string, limit int) ([]*NodeRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := nodeSelect
	args := []any{}
	if nodeType != "" {
		query += ` WHERE n.node_type = ?`
		args = append(args, nodeType)
	}
	query += ` ORDER BY n.created_at DESC, n.node_id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	var records []*NodeRecord
	for rows.Next() {
		rec, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes the node and, through the cascade, its arrays.
func (s *NodeStore) Delete(id string) error {
	var affected int64
	err := retryOnBusy(func() error {
		res, err := s.db.Exec(`DELETE FROM nodes WHERE uuid = ?`, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("delete node %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	return nil
}

// Count returns the total number of nodes of any type.
func (s *NodeStore) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM nodes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return n, nil
}

func scanNode(row rowScanner) (*NodeRecord, error) {
	var rec NodeRecord
	var attrsStr sql.NullString
	err := row.Scan(&rec.NodeID, &rec.UUID, &rec.NodeType, &rec.Label, &rec.Description,
		&rec.UserEmail, &rec.Computer, &attrsStr, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if attrsStr.Valid {
		rec.Attrs = json.RawMessage(attrsStr.String)
	}
	return &rec, nil
}
