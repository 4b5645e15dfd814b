package summary

import (
	"strconv"
	"strings"
	"time"

	"github.com/timewave-computer/causality-sub001/core/content"
	"github.com/timewave-computer/causality-sub001/core/resource"
)

// Record is the verifiable summary record embedded in a summary
// register's metadata (spec §4.6 "Summary record").
type Record struct {
	SummaryID     content.ID
	SummarizedIDs []content.ID
	Epoch         uint64
	CreatedAt     time.Time
	BlockHeight   uint64
	Domain        resource.DomainID
	SummaryHash   content.ID
}

// computeHash derives summary_hash = H(concat(summarized_ids) || epoch ||
// created_at) (spec §4.6 "Summary record").
func computeHash(summarizedIDs []content.ID, epoch uint64, createdAt time.Time) content.ID {
	var buf []byte
	for _, id := range summarizedIDs {
		buf = append(buf, id[:]...)
	}
	buf = append(buf, []byte(strconv.FormatUint(epoch, 10))...)
	buf = append(buf, []byte(createdAt.UTC().Format(time.RFC3339Nano))...)
	return content.HashBytes(buf)
}

const (
	metaPrefix         = "summary_record."
	metaSummarizedIDs  = metaPrefix + "summarized_ids"
	metaEpoch          = metaPrefix + "epoch"
	metaCreatedAt       = metaPrefix + "created_at"
	metaBlockHeight    = metaPrefix + "block_height"
	metaDomain         = metaPrefix + "domain"
	metaHash           = metaPrefix + "hash"
	metaStrategyName   = metaPrefix + "strategy"
	metaGroupKey       = metaPrefix + "group_key"
)

// toMetadata serializes record into a register metadata map alongside
// strategyName and groupKey, so the record can later be reconstructed
// from metadata alone (spec §4.6 "Record is serialized into the summary
// register's metadata and can be reconstructed from metadata alone").
func toMetadata(record Record, strategyName string, groupKey GroupKey) map[string]string {
	ids := make([]string, len(record.SummarizedIDs))
	for i, id := range record.SummarizedIDs {
		ids[i] = id.String()
	}
	return map[string]string{
		metaSummarizedIDs: strings.Join(ids, ","),
		metaEpoch:         strconv.FormatUint(record.Epoch, 10),
		metaCreatedAt:     record.CreatedAt.UTC().Format(time.RFC3339Nano),
		metaBlockHeight:   strconv.FormatUint(record.BlockHeight, 10),
		metaDomain:        string(record.Domain),
		metaHash:          record.SummaryHash.String(),
		metaStrategyName:  strategyName,
		metaGroupKey:      string(groupKey),
	}
}

// fromMetadata reconstructs a Record (plus the strategy name and group
// key) from a register's metadata map.
func fromMetadata(meta map[string]string) (Record, string, GroupKey, error) {
	var record Record
	idsRaw := meta[metaSummarizedIDs]
	if idsRaw != "" {
		for _, s := range strings.Split(idsRaw, ",") {
			id, err := content.ParseID(s)
			if err != nil {
				return Record{}, "", "", err
			}
			record.SummarizedIDs = append(record.SummarizedIDs, id)
		}
	}
	epoch, err := strconv.ParseUint(meta[metaEpoch], 10, 64)
	if err != nil {
		return Record{}, "", "", err
	}
	record.Epoch = epoch

	createdAt, err := time.Parse(time.RFC3339Nano, meta[metaCreatedAt])
	if err != nil {
		return Record{}, "", "", err
	}
	record.CreatedAt = createdAt

	blockHeight, err := strconv.ParseUint(meta[metaBlockHeight], 10, 64)
	if err != nil {
		return Record{}, "", "", err
	}
	record.BlockHeight = blockHeight

	record.Domain = resource.DomainID(meta[metaDomain])

	hash, err := content.ParseID(meta[metaHash])
	if err != nil {
		return Record{}, "", "", err
	}
	record.SummaryHash = hash

	return record, meta[metaStrategyName], GroupKey(meta[metaGroupKey]), nil
}
