package ontology_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/c360studio/ontokg/ontology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const animals = "http://example.org/animals#"

func animal(name string) ontology.Node {
	return ontology.IRI(animals + name)
}

func localNames(nodes []ontology.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.LocalName()
	}
	return out
}

func treeNames(tree ontology.Tree) []string {
	var names []string
	tree.Walk(func(n ontology.Node, _ int) bool {
		names = append(names, n.LocalName())
		return true
	})
	return names
}

func openTestdata(t *testing.T, name string, opts ...ontology.Option) *ontology.Inspector {
	t.Helper()
	insp, err := ontology.Open(context.Background(), "testdata/"+name, opts...)
	require.NoError(t, err)
	return insp
}

func TestInspector_AnimalsEndToEnd(t *testing.T) {
	for _, file := range []string{"animals.ttl", "animals.rdf"} {
		t.Run(file, func(t *testing.T) {
			insp := openTestdata(t, file)

			assert.Equal(t, []string{"Animal", "Cat", "Dog", "Person"}, localNames(insp.Classes()))
			assert.Equal(t, []string{"Animal", "Person"}, localNames(insp.TopClasses()))
			assert.Equal(t, []ontology.Node{animal("Cat")}, insp.Siblings(animal("Dog")))
			assert.Equal(t, "http://example.org/animals", insp.OntologyURI())

			props := insp.ObjectProperties()
			require.Len(t, props, 1)
			assert.Equal(t, animal("hasPet"), props[0].Predicate)
			assert.Equal(t, animal("Person"), props[0].SubjectClass)
			assert.Equal(t, []ontology.Node{animal("Animal")}, props[0].RangeClasses)

			entities, predicates := insp.EntitiesAndPredicates()
			assert.Equal(t, []string{"Animal", "Cat", "Dog", "Person"}, entities)
			assert.Equal(t, []string{"hasPet"}, predicates)
		})
	}
}

func TestInspector_DetectsFormat(t *testing.T) {
	assert.Equal(t, ontology.FormatRDFXML, openTestdata(t, "animals.rdf").Format())
	assert.Equal(t, ontology.FormatTurtle, openTestdata(t, "animals.ttl").Format())

	insp := openTestdata(t, "animals.nt", ontology.WithFormat(ontology.FormatNTriples))
	assert.Equal(t, ontology.FormatNTriples, insp.Format())
	assert.Equal(t, []string{"Animal", "Cat", "Dog", "Person"}, localNames(insp.Classes()))
}

func TestInspector_OntologyURIFallsBackToLocator(t *testing.T) {
	insp := openTestdata(t, "animals.nt")
	assert.Equal(t, "testdata/animals.nt", insp.OntologyURI())
}

func TestOpen_LoadError(t *testing.T) {
	_, err := ontology.Open(context.Background(), "testdata/garbage.txt")
	require.Error(t, err)

	var loadErr *ontology.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, ontology.ErrUnparseable)
	assert.Equal(t, "testdata/garbage.txt", loadErr.Locator)
	require.Len(t, loadErr.Attempts, 3)
	assert.Equal(t, ontology.FormatRDFXML, loadErr.Attempts[0].Format)
	assert.Equal(t, ontology.FormatTurtle, loadErr.Attempts[1].Format)
	assert.Equal(t, ontology.FormatNTriples, loadErr.Attempts[2].Format)
	assert.True(t, ontology.IsLoadError(err))
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := ontology.Open(context.Background(), "testdata/does-not-exist.owl")
	require.Error(t, err)
	assert.False(t, ontology.IsLoadError(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRead_EmptyDocument(t *testing.T) {
	insp, err := ontology.Read(strings.NewReader("   \n"))
	require.NoError(t, err)
	assert.Empty(t, insp.Classes())
	assert.Empty(t, insp.TopClasses())
	assert.Empty(t, insp.Tree().Roots())
}

func TestInspector_RiskOntology(t *testing.T) {
	insp := openTestdata(t, "risk.ttl")
	const risk = "http://example.org/risk#"
	n := func(name string) ontology.Node { return ontology.IRI(risk + name) }

	t.Run("classes include undeclared and cyclic classes", func(t *testing.T) {
		assert.Equal(t, []string{
			"AISystem", "Anon", "HighRiskAISystem", "Loop1", "Loop2",
			"Mitigation", "ResidualRisk", "Risk",
		}, localNames(insp.Classes()))
	})

	t.Run("blank supers are excluded by default", func(t *testing.T) {
		assert.Empty(t, insp.DirectSupers(n("Anon")))
		assert.Contains(t, localNames(insp.TopClasses()), "Anon")
	})

	t.Run("cycle members are not top classes", func(t *testing.T) {
		top := localNames(insp.TopClasses())
		assert.NotContains(t, top, "Loop1")
		assert.NotContains(t, top, "Loop2")
		assert.ElementsMatch(t, []ontology.Node{n("Loop1"), n("Loop2")}, insp.AllSupers(n("Loop1")))
	})

	t.Run("multiple domains keep the last as subject class", func(t *testing.T) {
		props := insp.ObjectProperties()
		require.Len(t, props, 2)

		assert.Equal(t, n("hasRisk"), props[0].Predicate)
		assert.Equal(t, []ontology.Node{n("Risk"), n("ResidualRisk")}, props[0].RangeClasses)

		assert.Equal(t, n("mitigatedBy"), props[1].Predicate)
		assert.Equal(t, []ontology.Node{n("Risk"), n("ResidualRisk")}, props[1].Domains)
		assert.Equal(t, n("ResidualRisk"), props[1].SubjectClass)
	})

	t.Run("blank nodes can be kept", func(t *testing.T) {
		withBlanks := openTestdata(t, "risk.ttl", ontology.WithBlankNodes(true))
		supers := withBlanks.DirectSupers(n("Anon"))
		require.Len(t, supers, 1)
		assert.True(t, supers[0].IsBlank())
		assert.Len(t, withBlanks.Classes(), len(insp.Classes())+1)
	})

	t.Run("class predicate filter", func(t *testing.T) {
		owlOnly := openTestdata(t, "risk.ttl", ontology.WithClassPredicate("owl"))
		assert.Equal(t, []string{"AISystem", "Mitigation"}, localNames(owlOnly.Classes()))

		rdfsOnly := openTestdata(t, "risk.ttl", ontology.WithClassPredicate("rdfs"))
		assert.Equal(t, []string{"Risk"}, localNames(rdfsOnly.Classes()))

		// Undeclared subclasses stay out of the tree.
		assert.Equal(t, []string{"AISystem", "Mitigation"}, treeNames(owlOnly.Tree()))
		assert.Empty(t, owlOnly.Tree().Children(n("AISystem")))
		assert.Equal(t, []string{"Risk"}, treeNames(rdfsOnly.Tree()))
		assert.Equal(t, []string{"Risk"}, localNames(rdfsOnly.TopClasses()))

		_, err := ontology.Open(context.Background(), "testdata/risk.ttl", ontology.WithClassPredicate("skos"))
		assert.ErrorIs(t, err, ontology.ErrInvalidClassPredicate)
	})
}

func TestInspector_Stats(t *testing.T) {
	stats := openTestdata(t, "animals.ttl").Stats()
	assert.Equal(t, 4, stats.Classes)
	assert.Equal(t, 2, stats.TopClasses)
	assert.Equal(t, 2, stats.TreeDepth)
	assert.Equal(t, 1, stats.Properties)
	assert.Equal(t, ontology.FormatTurtle, stats.Format)
	assert.Positive(t, stats.Triples)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ontology.Format
		wantErr bool
	}{
		{"xml", ontology.FormatRDFXML, false},
		{".owl", ontology.FormatRDFXML, false},
		{"n3", ontology.FormatTurtle, false},
		{"TTL", ontology.FormatTurtle, false},
		{"nt", ontology.FormatNTriples, false},
		{"jsonld", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ontology.ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ontology.ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpen_Locators(t *testing.T) {
	data, err := os.ReadFile("testdata/animals.ttl")
	require.NoError(t, err)

	abs, err := filepath.Abs("testdata/animals.ttl")
	require.NoError(t, err)

	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Path != "/animals.ttl" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/turtle")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	for _, locator := range []string{"file://" + filepath.ToSlash(abs), srv.URL + "/animals.ttl"} {
		insp, err := ontology.Open(context.Background(), locator)
		require.NoError(t, err, locator)
		assert.Equal(t, []string{"Animal", "Cat", "Dog", "Person"}, localNames(insp.Classes()))
		assert.Equal(t, locator, insp.Locator())
	}
	assert.Equal(t, 1, requests)

	_, err = ontology.Open(context.Background(), srv.URL+"/missing.ttl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
	assert.False(t, ontology.IsLoadError(err))
}

func TestInspector_ProtegeRDFXML(t *testing.T) {
	const airo = "http://example.org/airo#"
	n := func(name string) ontology.Node { return ontology.IRI(airo + name) }

	insp := openTestdata(t, "airo.owl")
	assert.Equal(t, ontology.FormatRDFXML, insp.Format())
	assert.Equal(t, "http://example.org/airo", insp.OntologyURI())

	// Restriction parents and unionOf members are blank nodes and stay out
	// of the class list by default.
	assert.Equal(t, []string{"AISystem", "Harm", "HighRiskAISystem", "Impact", "Risk"}, localNames(insp.Classes()))
	assert.Equal(t, []string{"AISystem", "Harm", "Impact", "Risk"}, localNames(insp.TopClasses()))
	assert.Equal(t, []ontology.Node{n("AISystem")}, insp.DirectSupers(n("HighRiskAISystem")))
	assert.Equal(t, []ontology.Node{n("HighRiskAISystem")}, insp.Tree().Children(n("AISystem")))

	withBlanks := openTestdata(t, "airo.owl", ontology.WithBlankNodes(true))
	raw := withBlanks.DirectSupers(n("HighRiskAISystem"))
	require.Len(t, raw, 2)
	var restriction ontology.Node
	for _, s := range raw {
		if s.IsBlank() {
			restriction = s
		}
	}
	require.True(t, restriction.IsBlank())
	assert.Equal(t, []ontology.Node{n("hasRisk")},
		insp.Graph().Objects(restriction, ontology.IRI("http://www.w3.org/2002/07/owl#onProperty")))

	props := insp.ObjectProperties()
	require.Len(t, props, 2)
	assert.Equal(t, n("hasConsequence"), props[0].Predicate)
	require.Len(t, props[0].RangeClasses, 1)
	assert.True(t, props[0].RangeClasses[0].IsBlank())
	assert.Equal(t, n("hasRisk"), props[1].Predicate)
	assert.Equal(t, []ontology.Node{n("Risk")}, props[1].RangeClasses)

	labels := insp.Graph().Objects(n("AISystem"), ontology.IRI("http://www.w3.org/2000/01/rdf-schema#label"))
	require.Len(t, labels, 1)
	assert.Equal(t, "AI system", labels[0].Value)
	assert.Equal(t, "en", labels[0].Lang)
}

func TestRead_RelativeIRIs(t *testing.T) {
	const doc = `<Dog> <http://www.w3.org/2000/01/rdf-schema#subClassOf> <Animal> .`
	insp, err := ontology.Read(strings.NewReader(doc),
		ontology.WithFormat(ontology.FormatTurtle),
		ontology.WithBaseIRI("http://example.org/pets/"))
	require.NoError(t, err)
	assert.Equal(t, []ontology.Node{
		ontology.IRI("http://example.org/pets/Animal"),
		ontology.IRI("http://example.org/pets/Dog"),
	}, insp.Classes())
}

// fillReader yields an endless run of one byte.
type fillReader byte

func (b fillReader) Read(p []byte) (int, error) {
	for idx := range p {
		p[idx] = byte(b)
	}
	return len(p), nil
}

func TestRead_DocumentTooLarge(t *testing.T) {
	_, err := ontology.Read(io.LimitReader(fillReader(' '), 64*1024*1024+1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ontology.ErrDocumentTooLarge)
	assert.False(t, ontology.IsLoadError(err))
}
