package ocr

import (
	"fmt"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
)

// FilterElements drops elements finer than cfg.MinLevel (word when empty)
// or below cfg.MinConfidence. Survivors whose parent was dropped are re-linked to
// their nearest surviving ancestor. Without BuildHierarchy, parent links
// are removed entirely.
func FilterElements(elements []domain.OcrElement, cfg *domain.OcrElementConfig) []domain.OcrElement {
	if cfg == nil || len(elements) == 0 {
		return elements
	}

	minRank := domain.OcrLevelWord.Rank()
	if cfg.MinLevel.Valid() {
		minRank = cfg.MinLevel.Rank()
	}

	parentOf := make(map[string]string, len(elements))
	for _, el := range elements {
		if el.ElementID != "" {
			parentOf[el.ElementID] = el.ParentID
		}
	}

	kept := make([]domain.OcrElement, 0, len(elements))
	keptIDs := make(map[string]struct{}, len(elements))
	for _, el := range elements {
		if el.Level.Rank() < minRank || el.Confidence.Recognition < cfg.MinConfidence {
			continue
		}
		kept = append(kept, el)
		if el.ElementID != "" {
			keptIDs[el.ElementID] = struct{}{}
		}
	}

	for i := range kept {
		if !cfg.BuildHierarchy {
			kept[i].ParentID = ""
			continue
		}
		kept[i].ParentID = survivingAncestor(kept[i].ParentID, parentOf, keptIDs)
	}
	return kept
}

// survivingAncestor follows parent links until it reaches a kept element.
// Unknown ids are returned as-is so ValidateHierarchy can report them.
func survivingAncestor(id string, parentOf map[string]string, kept map[string]struct{}) string {
	seen := make(map[string]struct{})
	for id != "" {
		if _, ok := kept[id]; ok {
			return id
		}
		next, known := parentOf[id]
		if !known {
			return id
		}
		if _, loop := seen[id]; loop {
			return ""
		}
		seen[id] = struct{}{}
		id = next
	}
	return ""
}

// ValidateHierarchy checks that every parent_id resolves to an element of
// the same result.
func ValidateHierarchy(elements []domain.OcrElement) error {
	ids := make(map[string]struct{}, len(elements))
	for _, el := range elements {
		if el.ElementID != "" {
			ids[el.ElementID] = struct{}{}
		}
	}
	for _, el := range elements {
		if el.ParentID == "" {
			continue
		}
		if _, ok := ids[el.ParentID]; !ok {
			return domain.NewValidationError(fmt.Sprintf(
				"ocr element %q references missing parent %q", el.ElementID, el.ParentID))
		}
	}
	return nil
}

// AssignElementIDs fills in missing element ids deterministically.
func AssignElementIDs(elements []domain.OcrElement) {
	for i := range elements {
		if elements[i].ElementID == "" {
			elements[i].ElementID = domain.NewElementID(
				domain.ElementType("ocr_"+string(elements[i].Level)), elements[i].Text, elements[i].PageNumber, i)
		}
	}
}
